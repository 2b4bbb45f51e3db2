// Package query answers filtered questions about a captured HAR document:
// which responses came back, what the browser sent, and both joined together.
package query

import (
	"github.com/cnharrison/harq/internal/source"
)

// ErrSourceUnavailable is returned by every Engine entry point when no HAR
// snapshot can be obtained.
var ErrSourceUnavailable = source.ErrSourceUnavailable

// ResponseBodyRecord is the normalized view of one entry's response
type ResponseBodyRecord struct {
	URL      string  `json:"url"`
	Method   string  `json:"method"`
	Status   int     `json:"status"`
	MimeType string  `json:"mimeType"`
	Size     int     `json:"size"`
	Body     *string `json:"body"`
	// JSON holds the parsed body when the mime type is JSON and parsing succeeded
	JSON any `json:"json,omitempty"`
}

// RequestPayloadRecord is the normalized view of one entry's request
type RequestPayloadRecord struct {
	URL         string              `json:"url"`
	Method      string              `json:"method"`
	Headers     map[string]string   `json:"headers"`
	QueryParams map[string]string   `json:"query_params"`
	ContentType string              `json:"content_type"`
	Payload     *string             `json:"payload"`
	PayloadSize int                 `json:"payload_size"`
	JSON        any                 `json:"json,omitempty"`
	FormData    map[string][]string `json:"form_data,omitzero"`
}

// CombinedRecord pairs a request with the first response sharing its URL and method.
// Response is nil when no such response exists.
type CombinedRecord struct {
	URL      string               `json:"url"`
	Method   string               `json:"method"`
	Request  RequestPayloadRecord `json:"request"`
	Response *ResponseBodyRecord  `json:"response"`
}

// BodyText returns the decoded body or "" when none was captured
func (r ResponseBodyRecord) BodyText() string {
	if r.Body == nil {
		return ""
	}
	return *r.Body
}

// PayloadText returns the request payload or "" when none was captured
func (r RequestPayloadRecord) PayloadText() string {
	if r.Payload == nil {
		return ""
	}
	return *r.Payload
}
