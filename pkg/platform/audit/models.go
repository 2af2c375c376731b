package audit

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	id "cardscan/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events that released or destroyed personal data.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine capture activity. It can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the scan service at each lifecycle step. It never
// carries raw OCR text or extracted values.
type Event struct {
	Category  EventCategory    `json:"category"`
	Timestamp time.Time        `json:"timestamp"`
	SessionID id.ScanSessionID `json:"session_id"`
	Action    string           `json:"action"`
	Side      string           `json:"side,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	State     string           `json:"state,omitempty"`
	Platform  string           `json:"platform,omitempty"`
	// Subject is the authenticated caller, when the API runs with auth.
	Subject   string `json:"subject,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// SubjectIDHash is a BLAKE2b-256 hash of the card's ID number, so a
	// completed scan can be traced without storing the number itself.
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
}

type AuditEvent string

const (
	EventScanStarted   AuditEvent = "scan_started"
	EventSideAccepted  AuditEvent = "side_accepted"
	EventSideRejected  AuditEvent = "side_rejected"
	EventScanCompleted AuditEvent = "scan_completed"
	EventScanFinalized AuditEvent = "scan_finalized"
	EventScanCancelled AuditEvent = "scan_cancelled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventScanCompleted: CategoryCompliance,
	EventScanFinalized: CategoryCompliance,
	EventScanCancelled: CategoryCompliance,

	EventScanStarted:  CategoryOperations,
	EventSideAccepted: CategoryOperations,
	EventSideRejected: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists the events recorded for one session. Write-only sinks such as
// Kafka do not implement it.
type Reader interface {
	ListBySession(ctx context.Context, sessionID id.ScanSessionID) ([]Event, error)
}

// HashSubjectID hashes an identifier for traceability without PII. Dashes
// and spaces are ignored so printed and MRZ forms hash alike.
func HashSubjectID(value string) string {
	value = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, value)
	if value == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
