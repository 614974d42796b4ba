package handler

import (
	"time"

	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
)

// VerificationResponse is one verification record. Result keeps the
// validator's own JSON shape.
type VerificationResponse struct {
	ID           string            `json:"id"`
	MaskedNumber string            `json:"masked_number"`
	Result       saidnumber.Result `json:"result"`
	CheckedAt    time.Time         `json:"checked_at"`
	RequestID    string            `json:"request_id,omitempty"`
	OperatorID   string            `json:"operator_id,omitempty"`
}

// VerificationListResponse wraps several verifications.
type VerificationListResponse struct {
	Verifications []*VerificationResponse `json:"verifications"`
	Count         int                     `json:"count"`
}

// StatsResponse is the HTTP response for GET /identity/stats.
type StatsResponse struct {
	Total     int            `json:"total"`
	ByOutcome map[string]int `json:"by_outcome"`
}

// FromVerification converts a domain verification to an HTTP response.
func FromVerification(v *models.Verification) *VerificationResponse {
	resp := &VerificationResponse{
		ID:           v.ID.String(),
		MaskedNumber: v.MaskedNumber,
		Result:       v.Result,
		CheckedAt:    v.CheckedAt,
		RequestID:    v.RequestID,
	}
	if !v.OperatorID.IsNil() {
		resp.OperatorID = v.OperatorID.String()
	}
	return resp
}

func fromVerifications(vs []*models.Verification) *VerificationListResponse {
	out := make([]*VerificationResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromVerification(v))
	}
	return &VerificationListResponse{Verifications: out, Count: len(out)}
}

func fromStats(s models.Stats) *StatsResponse {
	return &StatsResponse{Total: s.Total, ByOutcome: s.ByOutcome}
}
