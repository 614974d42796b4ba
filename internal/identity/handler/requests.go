package handler

import (
	"strings"

	dErrors "compliance/pkg/domain-errors"
)

// maxIDNumberLength bounds raw input before it reaches the validator. Real
// numbers are 13 digits; the slack allows for separators.
const maxIDNumberLength = 32

// ValidateRequest is the HTTP request body for POST /identity/validate.
type ValidateRequest struct {
	IDNumber string `json:"id_number" validate:"required,max=32"`
}

func (r *ValidateRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
}

// BatchValidateRequest is the HTTP request body for POST /identity/validate/batch.
type BatchValidateRequest struct {
	IDNumbers []string `json:"id_numbers" validate:"required,min=1"`
}

func (r *BatchValidateRequest) Normalize() {
	for i, n := range r.IDNumbers {
		r.IDNumbers[i] = strings.TrimSpace(n)
	}
}

// Validate rejects oversized entries. The batch size limit is enforced by the service.
func (r *BatchValidateRequest) Validate() error {
	for _, n := range r.IDNumbers {
		if n == "" {
			return dErrors.New(dErrors.CodeValidation, "id_numbers must not contain empty entries")
		}
		if len(n) > maxIDNumberLength {
			return dErrors.New(dErrors.CodeValidation, "id_numbers entries must be at most 32 characters")
		}
	}
	return nil
}

// HistoryRequest is the HTTP request body for POST /identity/history. The
// number travels in the body so it never appears in access logs.
type HistoryRequest struct {
	IDNumber string `json:"id_number" validate:"required,max=32"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
}

func (r *HistoryRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	if r.Limit == 0 {
		r.Limit = defaultListLimit
	}
}
