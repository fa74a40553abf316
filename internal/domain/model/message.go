package model

// ImagePayload is the image part of an inbound message.
type ImagePayload struct {
	URL      string `json:"url,omitempty"`
	ID       string `json:"id,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// Empty reports whether the payload has no URL to download. A media id
// whose lookup failed counts as empty.
func (p *ImagePayload) Empty() bool {
	return p == nil || p.URL == ""
}

// InboundMessage is a single seller message extracted from a webhook delivery.
type InboundMessage struct {
	From  string
	ID    string
	Text  string
	Image *ImagePayload
}
