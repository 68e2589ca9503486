package models

import (
	"time"

	"plantapp/labels"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// LabelsResponse is the structured answer of the labels API
type LabelsResponse struct {
	Labels []labels.Label `json:"labels"`
	Count  int            `json:"count"`
}

// LabelEvent is published once per completed label request
type LabelEvent struct {
	RequestID string         `json:"request_id"`
	Source    string         `json:"source"`
	Filename  string         `json:"filename,omitempty"`
	Labels    []labels.Label `json:"labels"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MessageID identifies the event on the broker; it is the request id.
func (e LabelEvent) MessageID() string {
	return e.RequestID
}
