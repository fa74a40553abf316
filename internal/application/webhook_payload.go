package application

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Cloud API webhook delivery. Only the fields the bot reads are mapped; the
// envelope is walked loosely so an unexpected shape reads as a missing
// section instead of a decode failure.

type webhookMessage struct {
	From      looseString   `json:"from"`
	ID        looseString   `json:"id"`
	Timestamp looseString   `json:"timestamp"`
	Type      looseString   `json:"type"`
	Text      *webhookText  `json:"text,omitempty"`
	Image     *webhookImage `json:"image,omitempty"`
}

type webhookText struct {
	Body looseString `json:"body"`
}

type webhookImage struct {
	URL      string `json:"url"`
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

// looseString accepts a JSON string, number or bool.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("expected a scalar, got %s", b[:1])
	default:
		*s = looseString(b)
	}
	return nil
}

type deliveryStage int

const (
	stageNoEntries deliveryStage = iota
	stageNoChanges
	stageNoMessages
	stageMessage
)

// firstMessage finds entry[0].changes[0].value.messages[0] in a syntactically
// valid body and reports how far it got.
func firstMessage(raw []byte) (deliveryStage, json.RawMessage) {
	entry, ok := firstElem(field(raw, "entry"))
	if !ok {
		return stageNoEntries, nil
	}
	change, ok := firstElem(field(entry, "changes"))
	if !ok {
		return stageNoChanges, nil
	}
	msg, ok := firstElem(field(field(change, "value"), "messages"))
	if !ok {
		return stageNoMessages, nil
	}
	return stageMessage, msg
}

// field returns obj[name], or nil when obj is not an object.
func field(obj json.RawMessage, name string) json.RawMessage {
	var m map[string]json.RawMessage
	if len(obj) == 0 || json.Unmarshal(obj, &m) != nil {
		return nil
	}
	return m[name]
}

// firstElem returns arr[0] when arr is a non-empty array.
func firstElem(arr json.RawMessage) (json.RawMessage, bool) {
	var items []json.RawMessage
	if len(arr) == 0 || json.Unmarshal(arr, &items) != nil || len(items) == 0 {
		return nil, false
	}
	return items[0], true
}
