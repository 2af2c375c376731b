package sequencer

import (
	"context"
	"sync"

	"cardscan/internal/scan/models"
	"cardscan/internal/scan/textnorm"
	id "cardscan/pkg/domain"
	dErrors "cardscan/pkg/domain-errors"
	"cardscan/pkg/requestcontext"
)

// Session is one capture. All methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	engine *Engine
	snap   models.Snapshot
}

// ID returns the session handle.
func (s *Session) ID() id.ScanSessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.ID
}

// State returns the current capture state.
func (s *Session) State() models.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.State
}

// SetPlatform records the host platform. It only affects labels and audit.
func (s *Session) SetPlatform(p models.Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Platform = p
}

// Submit processes one recognized text for the side the session waits for.
// Rejections are results, not errors. Errors are returned only for misuse
// (submitting to a finished session) or a cancelled context.
func (s *Session) Submit(ctx context.Context, text string) (models.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return models.SubmitResult{State: s.snap.State}, err
	}
	side, _ := models.SideFor(s.snap.State)
	result := models.SubmitResult{State: s.snap.State, Side: side}

	t := textnorm.New(text)
	verdict := s.engine.score(side, t)
	result.Score = verdict.Score
	if !verdict.Valid {
		result.Reason = models.ReasonInvalidSide
		return result, nil
	}
	if other := s.sideText(side.Opposite()); other != nil &&
		s.engine.isDuplicate(t, other, side == models.SideFront) {
		result.Reason = models.ReasonDuplicateSide
		return result, nil
	}

	now := requestcontext.Now(ctx)
	accepted := &models.SideText{Side: side, Text: text, AcceptedAt: now}
	switch side {
	case models.SideFront:
		s.snap.Front = accepted
		s.snap.State = models.StateBack
	case models.SideBack:
		if s.snap.Front == nil {
			return result, dErrors.New(dErrors.CodeInvariantViolation, "back accepted without a front side")
		}
		fields, err := s.engine.extract(ctx, s.snap.Front.Text, text)
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeTimeout, "extraction aborted")
		}
		s.snap.Back = accepted
		s.snap.Fields = fields
		s.snap.State = models.StateCompleted
	}
	s.snap.UpdatedAt = now

	result.Accepted = true
	result.Reason = models.ReasonAccepted
	result.State = s.snap.State
	return result, nil
}

// IsComplete reports whether both sides were accepted.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.State == models.StateCompleted
}

// Finalize returns a copy of the merged fields of a completed session.
func (s *Session) Finalize(ctx context.Context) (models.FieldMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "finalize aborted")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.snap.State {
	case models.StateCompleted:
		return s.snap.Fields.Clone(), nil
	case models.StateCancelled:
		return nil, dErrors.Wrap(models.ErrScanCancelled, dErrors.CodeConflict, "scan was cancelled")
	default:
		return nil, dErrors.Wrap(models.ErrIncompleteScan, dErrors.CodeConflict, "both sides must be accepted before finalize")
	}
}

// Cancel ends a capture that has not completed. Cancelling twice is a no-op.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.snap.State {
	case models.StateCancelled:
		return nil
	case models.StateCompleted:
		return dErrors.Wrap(models.ErrScanCompleted, dErrors.CodeConflict, "completed scan cannot be cancelled")
	}
	s.snap.State = models.StateCancelled
	s.snap.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

// Snapshot returns a deep copy of the session state for persistence.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.Front = cloneSide(s.snap.Front)
	out.Back = cloneSide(s.snap.Back)
	if s.snap.Fields != nil {
		out.Fields = s.snap.Fields.Clone()
	}
	return &out
}

func (s *Session) checkOpen() error {
	switch s.snap.State {
	case models.StateCompleted:
		return dErrors.Wrap(models.ErrScanCompleted, dErrors.CodeConflict, "scan already completed")
	case models.StateCancelled:
		return dErrors.Wrap(models.ErrScanCancelled, dErrors.CodeConflict, "scan was cancelled")
	}
	return nil
}

func (s *Session) sideText(side models.Side) *models.SideText {
	if side == models.SideFront {
		return s.snap.Front
	}
	return s.snap.Back
}

func validateSnapshot(snap *models.Snapshot) error {
	if snap == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "snapshot is required")
	}
	if snap.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "snapshot has no session id")
	}
	if !snap.State.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "snapshot has unknown state "+string(snap.State))
	}
	switch snap.State {
	case models.StateBack:
		if snap.Front == nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "snapshot waits for back without a front side")
		}
	case models.StateCompleted:
		if snap.Front == nil || snap.Back == nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "completed snapshot is missing a side")
		}
	}
	return nil
}
