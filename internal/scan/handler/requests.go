package handler

import (
	"strings"

	dErrors "cardscan/pkg/domain-errors"
)

// MaxTextBytes bounds the OCR text of a single capture.
const MaxTextBytes = 64 << 10

// SubmitTextRequest is the HTTP request body for POST /scans/{id}/text.
type SubmitTextRequest struct {
	Text string `json:"text"`
}

// Validate checks the request. The text is passed on untrimmed.
func (r *SubmitTextRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Text) > MaxTextBytes {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 64 KiB")
	}
	if strings.TrimSpace(r.Text) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "text is required")
	}
	return nil
}
