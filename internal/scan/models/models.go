// Package models holds the value types shared by the scan engine, service and stores.
package models

import (
	"maps"
	"strings"
	"time"

	id "cardscan/pkg/domain"
)

// CaptureState is the position of a session in the front, back, completed sequence.
type CaptureState string

const (
	StateFront     CaptureState = "front"
	StateBack      CaptureState = "back"
	StateCompleted CaptureState = "completed"
	StateCancelled CaptureState = "cancelled"
)

func (s CaptureState) String() string { return string(s) }

// IsTerminal reports whether no further text can be processed.
func (s CaptureState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// IsValid reports whether s is a known state.
func (s CaptureState) IsValid() bool {
	switch s {
	case StateFront, StateBack, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Side names one physical face of the card.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Opposite returns the other face.
func (s Side) Opposite() Side {
	if s == SideFront {
		return SideBack
	}
	return SideFront
}

// SideFor returns the side a state is waiting for. Terminal states wait for none.
func SideFor(state CaptureState) (Side, bool) {
	switch state {
	case StateFront:
		return SideFront, true
	case StateBack:
		return SideBack, true
	}
	return "", false
}

// SideText is the raw recognized text of one accepted side.
// It is never re-scored after acceptance.
type SideText struct {
	Side       Side      `json:"side"`
	Text       string    `json:"text"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// SubmitReason explains the outcome of one submitted capture.
type SubmitReason string

const (
	ReasonAccepted      SubmitReason = "accepted"
	ReasonInvalidSide   SubmitReason = "invalid_side"
	ReasonDuplicateSide SubmitReason = "duplicate_side"
)

// SubmitResult is returned for every processed capture, accepted or not.
type SubmitResult struct {
	Accepted bool         `json:"accepted"`
	State    CaptureState `json:"state"`
	Reason   SubmitReason `json:"reason"`
	Side     Side         `json:"side"`
	// Score is the classifier score for the side that was evaluated.
	Score int `json:"score"`
}

// Snapshot is the serializable form of a session, written by the stores.
type Snapshot struct {
	ID        id.ScanSessionID `json:"id"`
	State     CaptureState     `json:"state"`
	Front     *SideText        `json:"front,omitempty"`
	Back      *SideText        `json:"back,omitempty"`
	Fields    FieldMap         `json:"fields,omitempty"`
	Platform  Platform         `json:"platform"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// IsExpired reports whether the session handle is no longer usable at now.
func (s *Snapshot) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsComplete reports whether both sides were accepted.
func (s *Snapshot) IsComplete() bool {
	return s.State == StateCompleted
}

// MRZLines splits the mrzData field back into its lines.
func (s *Snapshot) MRZLines() []string {
	raw := s.Fields[FieldMRZData]
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "\n")
}

// Platform is the host operating system that drives the camera.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformOther   Platform = "other"
)

// FieldKey is one entry of the fixed result vocabulary. The values are the
// exact keys exposed to hosts.
type FieldKey string

const (
	FieldFullName     FieldKey = "fullName"
	FieldNameEn       FieldKey = "nameEn"
	FieldNameAr       FieldKey = "nameAr"
	FieldIDNumber     FieldKey = "idNumber"
	FieldNationality  FieldKey = "nationality"
	FieldDateOfBirth  FieldKey = "dateOfBirth"
	FieldIssueDate    FieldKey = "issueDate"
	FieldExpiryDate   FieldKey = "expiryDate"
	FieldGender       FieldKey = "gender"
	FieldCardNumber   FieldKey = "cardNumber"
	FieldOccupation   FieldKey = "occupation"
	FieldEmployer     FieldKey = "employer"
	FieldIssuingPlace FieldKey = "issuingPlace"
	FieldMRZData      FieldKey = "mrzData"
)

// AllFieldKeys lists the vocabulary in presentation order.
var AllFieldKeys = []FieldKey{
	FieldFullName, FieldNameEn, FieldNameAr, FieldIDNumber, FieldNationality,
	FieldDateOfBirth, FieldIssueDate, FieldExpiryDate, FieldGender,
	FieldCardNumber, FieldOccupation, FieldEmployer, FieldIssuingPlace, FieldMRZData,
}

// FieldMap holds extracted values. An absent key means "not found".
type FieldMap map[FieldKey]string

// SetIfEmpty stores value under key unless value is blank or key already
// holds a non-blank value. It reports whether the map changed.
func (m FieldMap) SetIfEmpty(key FieldKey, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if existing, ok := m[key]; ok && strings.TrimSpace(existing) != "" {
		return false
	}
	m[key] = value
	return true
}

// Has reports whether key holds a non-blank value.
func (m FieldMap) Has(key FieldKey) bool {
	return strings.TrimSpace(m[key]) != ""
}

// Clone returns an independent copy. A nil map clones to an empty one.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	maps.Copy(out, m)
	return out
}

// Merge fills every key of other that m does not already hold.
func (m FieldMap) Merge(other FieldMap) {
	for _, key := range AllFieldKeys {
		if v, ok := other[key]; ok {
			m.SetIfEmpty(key, v)
		}
	}
}

// Keys returns the present keys in vocabulary order.
func (m FieldMap) Keys() []FieldKey {
	keys := make([]FieldKey, 0, len(m))
	for _, key := range AllFieldKeys {
		if m.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ScanResult is the durable record of a completed scan.
type ScanResult struct {
	SessionID   id.ScanSessionID `json:"session_id"`
	Fields      FieldMap         `json:"fields"`
	MRZLines    []string         `json:"mrz_lines"`
	Platform    Platform         `json:"platform"`
	CompletedAt time.Time        `json:"completed_at"`
}

// ResultFromSnapshot builds the durable record of a completed session.
func ResultFromSnapshot(s *Snapshot) *ScanResult {
	completedAt := s.UpdatedAt
	if s.Back != nil {
		completedAt = s.Back.AcceptedAt
	}
	return &ScanResult{
		SessionID:   s.ID,
		Fields:      s.Fields.Clone(),
		MRZLines:    s.MRZLines(),
		Platform:    s.Platform,
		CompletedAt: completedAt,
	}
}
