package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is the position of a sender inside a multi-turn flow.
type Step int

const (
	StepIdle Step = 0

	StepUploadName        Step = 1
	StepUploadDescription Step = 2
	StepUploadPrice       Step = 3
	StepUploadCategory    Step = 4
	StepUploadPhone       Step = 5
	StepUploadImage       Step = 6

	StepEditSelectID    Step = 10
	StepEditSelectField Step = 11
	StepEditValue       Step = 12

	StepDeleteSelectID Step = 20
	StepDeleteConfirm  Step = 21
)

// Action names the flow a sender is in.
type Action string

const (
	ActionNone   Action = ""
	ActionUpload Action = "upload"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// EditField is the product attribute chosen at the edit menu.
type EditField string

const (
	FieldName           EditField = "name"
	FieldDescription    EditField = "description"
	FieldPrice          EditField = "price"
	FieldCategory       EditField = "category"
	FieldWhatsappNumber EditField = "whatsappNumber"
)

var fieldOptions = map[string]EditField{
	"1": FieldName,
	"2": FieldDescription,
	"3": FieldPrice,
	"4": FieldCategory,
	"5": FieldWhatsappNumber,
}

// FieldByOption maps the menu digit ("1".."5") to a field.
func FieldByOption(option string) (EditField, bool) {
	f, ok := fieldOptions[option]
	return f, ok
}

// ConversationState is the per-sender dialog record.
type ConversationState struct {
	Step   Step   `json:"step"`
	Action Action `json:"action,omitempty"`

	// upload draft
	Name           string           `json:"name,omitempty"`
	Description    string           `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Category       string           `json:"category,omitempty"`
	WhatsappNumber string           `json:"whatsappNumber,omitempty"`

	// edit / delete
	ProductID   int64     `json:"productId,omitempty"`
	FieldToEdit EditField `json:"fieldToEdit,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation starts a fresh flow at its first step.
func NewConversation(action Action, step Step) *ConversationState {
	return &ConversationState{Action: action, Step: step}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Price != nil {
		p := *s.Price
		c.Price = &p
	}
	return &c
}

// IdleFor reports how long the state has been untouched.
func (s *ConversationState) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
