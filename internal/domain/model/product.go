package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"whatsapp-catalog-bot/internal/domain"
)

// DefaultCategory is stored when the seller skips the category prompt.
const DefaultCategory = "Sin categoría"

// SkipKeyword lets the seller skip an optional field.
const SkipKeyword = "omitir"

// Product is a catalog entry owned by the seller.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category"`
	WhatsappNumber string          `json:"whatsappNumber"`
	ImageURL       *string         `json:"imageUrl,omitempty"`
	Available      bool            `json:"available"`
	Stock          int             `json:"stock"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewProductFromDraft builds an unsaved product out of a completed upload draft.
func NewProductFromDraft(st *ConversationState) (*Product, error) {
	if st == nil || st.Price == nil {
		return nil, fmt.Errorf("%w: incomplete draft", domain.ErrInvalidArgument)
	}
	return &Product{
		Name:           st.Name,
		Description:    st.Description,
		Price:          *st.Price,
		Category:       st.Category,
		WhatsappNumber: st.WhatsappNumber,
		Available:      true,
		Stock:          1,
	}, nil
}

// IsVisible reports whether the product should appear in the public catalog.
func (p *Product) IsVisible() bool {
	return p.ImageURL != nil && *p.ImageURL != "" && p.Available
}

// SetImage records the public URL of the stored product photo.
func (p *Product) SetImage(url string) {
	p.ImageURL = &url
}

// ApplyEdit overwrites a single field with a value typed by the seller.
func (p *Product) ApplyEdit(field EditField, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case FieldName:
		p.Name = value
	case FieldDescription:
		p.Description = value
	case FieldPrice:
		price, err := ParsePrice(value)
		if err != nil {
			return err
		}
		p.Price = price
	case FieldCategory:
		if strings.EqualFold(value, SkipKeyword) {
			value = DefaultCategory
		}
		p.Category = value
	case FieldWhatsappNumber:
		p.WhatsappNumber = value
	default:
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidArgument, field)
	}
	return nil
}

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ParsePrice strips everything except digits and dots and parses the rest
// as an exact decimal. "$2,500" becomes 2500.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, text)
	}
	return d, nil
}
