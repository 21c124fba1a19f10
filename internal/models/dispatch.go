package models

// Delivery statuses recorded per recipient. Anything else in DeliveryStatus is
// the upstream gateway's own status string, uppercased.
const (
	DeliveryStatusError   = "ERROR"
	DeliveryStatusUnknown = "UNKNOWN"
)

// MediaContent describes the media half of a dispatch request.
type MediaContent struct {
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Base64    string `json:"media"`
	FileName  string `json:"fileName"`
	Caption   string `json:"caption,omitempty"`
}

// DispatchRequest is a batch send to an ordered list of recipients.
// Exactly one of Text or Media is set.
type DispatchRequest struct {
	Recipients []string      `json:"recipients"`
	Text       string        `json:"text,omitempty"`
	Media      *MediaContent `json:"media,omitempty"`
}

// IsMedia reports whether the request carries media content.
func (r *DispatchRequest) IsMedia() bool {
	return r.Media != nil
}

// DispatchResult is the outcome for one recipient. Results are returned to the
// caller in request order and are never persisted.
type DispatchResult struct {
	Recipient      string `json:"recipient"`
	DeliveryStatus string `json:"deliveryStatus"`
	MessageID      string `json:"messageId,omitempty"`
	HTTPCode       int    `json:"httpCode,omitempty"`
	ErrorDetail    string `json:"errorDetail,omitempty"`
}

// ConnectionState is the normalized result of an instance state query.
type ConnectionState struct {
	OK           bool        `json:"ok"`
	HTTPCode     int         `json:"httpCode"`
	Instance     string      `json:"instance"`
	State        *string     `json:"state,omitempty"`
	Raw          interface{} `json:"raw,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}
