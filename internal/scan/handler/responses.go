package handler

import (
	"time"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
)

// StartResponse is the HTTP response for POST /scans.
type StartResponse struct {
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	Platform  string    `json:"platform"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubmitResponse is the HTTP response for POST /scans/{id}/text.
type SubmitResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
	Reason   string `json:"reason"`
	Side     string `json:"side"`
}

// SessionResponse is the HTTP response for GET /scans/{id}. Raw text is never returned.
type SessionResponse struct {
	SessionID     string `json:"session_id"`
	State         string `json:"state"`
	Platform      string `json:"platform"`
	Complete      bool   `json:"complete"`
	FrontAccepted bool   `json:"front_accepted"`
	BackAccepted  bool   `json:"back_accepted"`
}

// FinalizeResponse is the HTTP response for POST /scans/{id}/finalize.
type FinalizeResponse struct {
	SessionID string            `json:"session_id"`
	Fields    map[string]string `json:"fields"`
}

// ResultResponse is the HTTP response for GET /scans/{id}/result.
type ResultResponse struct {
	SessionID   string            `json:"session_id"`
	Fields      map[string]string `json:"fields"`
	Platform    string            `json:"platform"`
	CompletedAt time.Time         `json:"completed_at"`
}

func FromStart(snap *models.Snapshot) *StartResponse {
	return &StartResponse{
		SessionID: snap.ID.String(),
		State:     string(snap.State),
		Platform:  string(snap.Platform),
		ExpiresAt: snap.ExpiresAt,
	}
}

func FromSubmit(res *models.SubmitResult) *SubmitResponse {
	return &SubmitResponse{
		Accepted: res.Accepted,
		State:    string(res.State),
		Reason:   string(res.Reason),
		Side:     string(res.Side),
	}
}

func FromSnapshot(snap *models.Snapshot) *SessionResponse {
	return &SessionResponse{
		SessionID:     snap.ID.String(),
		State:         string(snap.State),
		Platform:      string(snap.Platform),
		Complete:      snap.IsComplete(),
		FrontAccepted: snap.Front != nil,
		BackAccepted:  snap.Back != nil,
	}
}

// FromFields lists only present keys.
func FromFields(sessionID id.ScanSessionID, fields models.FieldMap) *FinalizeResponse {
	out := make(map[string]string, len(fields))
	for _, key := range fields.Keys() {
		out[string(key)] = fields[key]
	}
	return &FinalizeResponse{SessionID: sessionID.String(), Fields: out}
}

func FromResult(result *models.ScanResult) *ResultResponse {
	return &ResultResponse{
		SessionID:   result.SessionID.String(),
		Fields:      FromFields(result.SessionID, result.Fields).Fields,
		Platform:    string(result.Platform),
		CompletedAt: result.CompletedAt,
	}
}
