package usecase

import "strings"

// Intent is the top-level command recognised in a message body.
type Intent int

const (
	IntentNone Intent = iota
	IntentWelcome
	IntentUpload
	IntentEdit
	IntentDelete
	IntentList
)

func (i Intent) String() string {
	switch i {
	case IntentWelcome:
		return "welcome"
	case IntentUpload:
		return "upload"
	case IntentEdit:
		return "edit"
	case IntentDelete:
		return "delete"
	case IntentList:
		return "list"
	default:
		return "none"
	}
}

// NormalizeText lower-cases and trims a message body.
func NormalizeText(body string) string {
	return strings.ToLower(strings.TrimSpace(body))
}

// ClassifyIntent matches keywords as substrings of the normalized body.
// Rules are checked in order and the first match wins, so "ayuda para subir"
// is a welcome, not an upload.
func ClassifyIntent(body string) (Intent, string) {
	t := NormalizeText(body)
	switch {
	case containsAny(t, "inicio", "empezar", "ayuda"):
		return IntentWelcome, t
	case containsAny(t, "subir", "agregar"):
		return IntentUpload, t
	case containsAny(t, "editar", "modificar"):
		return IntentEdit, t
	case containsAny(t, "borrar", "eliminar"):
		return IntentDelete, t
	case strings.Contains(t, "ver") && strings.Contains(t, "producto"):
		return IntentList, t
	}
	return IntentNone, t
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
