package usecase

// Translator renders a reply template by key.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Reply template keys.
const (
	keyWelcome = "welcome"

	keyUploadStart         = "upload_start"
	keyUploadNameSaved     = "upload_name_saved"
	keyUploadDescription   = "upload_description_saved"
	keyUploadPriceSaved    = "upload_price_saved"
	keyPriceInvalid        = "price_invalid"
	keyUploadCategorySaved = "upload_category_saved"
	keyUploadPhoneSaved    = "upload_phone_saved"
	keyUploadImageMissing  = "upload_image_missing"
	keyUploadImageError    = "upload_image_error"
	keyUploadSuccess       = "upload_success"

	keyListItem         = "list_item"
	keyListError        = "list_error"
	keyEditListHeader   = "edit_list_header"
	keyEditListFooter   = "edit_list_footer"
	keyEditListEmpty    = "edit_list_empty"
	keyDeleteListHeader = "delete_list_header"
	keyDeleteListFooter = "delete_list_footer"
	keyDeleteListEmpty  = "delete_list_empty"
	keyInvalidID        = "invalid_id"
	keyProductNotFound  = "product_not_found"
	keyProductVanished  = "product_vanished"

	keyCatalogHeader      = "catalog_header"
	keyCatalogItem        = "catalog_item"
	keyCatalogDescription = "catalog_item_description"
	keyCatalogCategory    = "catalog_item_category"
	keyCatalogItemFooter  = "catalog_item_footer"
	keyCatalogFooter      = "catalog_footer"
	keyCatalogEmpty       = "catalog_empty"

	keyEditSelected      = "edit_selected"
	keyEditInvalidOption = "edit_invalid_option"
	keyEditFieldSelected = "edit_field_selected"
	keyEditPromptPrefix  = "edit_prompt_"
	keyEditSuccess       = "edit_success"
	keyEditSaveError     = "edit_save_error"
	keyEditFlowError     = "edit_flow_error"

	keyDeleteConfirm      = "delete_confirm"
	keyDeleteSuccess      = "delete_success"
	keyDeleteCancelled    = "delete_cancelled"
	keyDeleteUnrecognized = "delete_unrecognized"
	keyDeleteFlowError    = "delete_flow_error"
)

// ReplyKeys lists every template the dialog engine renders. Startup checks
// the loaded vocabulary against it.
var ReplyKeys = []string{
	keyWelcome,
	keyUploadStart, keyUploadNameSaved, keyUploadDescription, keyUploadPriceSaved, keyPriceInvalid,
	keyUploadCategorySaved, keyUploadPhoneSaved, keyUploadImageMissing, keyUploadImageError, keyUploadSuccess,
	keyListItem, keyListError, keyEditListHeader, keyEditListFooter, keyEditListEmpty,
	keyDeleteListHeader, keyDeleteListFooter, keyDeleteListEmpty, keyInvalidID, keyProductNotFound, keyProductVanished,
	keyCatalogHeader, keyCatalogItem, keyCatalogDescription, keyCatalogCategory, keyCatalogItemFooter,
	keyCatalogFooter, keyCatalogEmpty,
	keyEditSelected, keyEditInvalidOption, keyEditFieldSelected,
	keyEditPromptPrefix + "name", keyEditPromptPrefix + "description", keyEditPromptPrefix + "price",
	keyEditPromptPrefix + "category", keyEditPromptPrefix + "whatsappNumber",
	keyEditSuccess, keyEditSaveError, keyEditFlowError,
	keyDeleteConfirm, keyDeleteSuccess, keyDeleteCancelled, keyDeleteUnrecognized, keyDeleteFlowError,
}
