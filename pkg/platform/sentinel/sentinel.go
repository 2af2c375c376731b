package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the scan service translates them into domain errors:
//   - ErrNotFound: no session or result stored under the key
//   - ErrExpired: the session outlived its TTL
var (
	ErrNotFound = errors.New("not found")
	ErrExpired  = errors.New("expired")
)
