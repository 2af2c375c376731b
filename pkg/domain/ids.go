package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "cardscan/pkg/domain-errors"
)

// ScanSessionID is the handle a host uses to address one card scan.
// A distinct type keeps it from being confused with request IDs.
type ScanSessionID uuid.UUID

// NewScanSessionID returns a fresh random session handle.
func NewScanSessionID() ScanSessionID {
	return ScanSessionID(uuid.New())
}

// ParseScanSessionID parses a session handle at a trust boundary.
// Empty, malformed and nil UUIDs are rejected with CodeInvalidInput.
func ParseScanSessionID(s string) (ScanSessionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ScanSessionID{}, err
	}
	return ScanSessionID(u), nil
}

func (id ScanSessionID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the handle is the zero UUID.
func (id ScanSessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText lets session IDs appear as plain strings in JSON.
func (id ScanSessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ScanSessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseScanSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

const maxIDLength = 64

func parseUUID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be nil")
	}
	return u, nil
}
