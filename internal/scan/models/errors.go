package models

import "errors"

// Misuse errors. They indicate a host integration bug, never a bad capture.
var (
	ErrIncompleteScan = errors.New("scan is not complete")
	ErrScanCompleted  = errors.New("scan already completed")
	ErrScanCancelled  = errors.New("scan was cancelled")
)
