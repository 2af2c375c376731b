// Package service owns scan sessions addressed by handle. It loads a session
// snapshot, applies one operation through the sequencer and saves it back,
// holding a per-session lock for the whole cycle.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	scanmetrics "cardscan/internal/scan/metrics"
	"cardscan/internal/scan/models"
	"cardscan/internal/scan/sequencer"
	id "cardscan/pkg/domain"
	dErrors "cardscan/pkg/domain-errors"
	audit "cardscan/pkg/platform/audit"
	"cardscan/pkg/platform/sentinel"
	"cardscan/pkg/requestcontext"
)

// DefaultSessionTTL is how long a handle stays usable after Start.
const DefaultSessionTTL = 10 * time.Minute

// SessionStore persists session snapshots between requests.
type SessionStore interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context, sessionID id.ScanSessionID) (*models.Snapshot, error)
	Delete(ctx context.Context, sessionID id.ScanSessionID) error
}

// ResultStore keeps finalized results.
type ResultStore interface {
	SaveResult(ctx context.Context, result *models.ScanResult) error
	FindResult(ctx context.Context, sessionID id.ScanSessionID) (*models.ScanResult, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates scan sessions.
type Service struct {
	engine   *sequencer.Engine
	sessions SessionStore
	results  ResultStore
	locks    *sessionLocks
	ttl      time.Duration

	logger         *slog.Logger
	metrics        *scanmetrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *scanmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithResultStore persists every finalized scan.
func WithResultStore(results ResultStore) Option {
	return func(s *Service) {
		s.results = results
	}
}

// WithSessionTTL overrides DefaultSessionTTL. Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLockTimeout bounds how long one operation may wait for and hold its session lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.locks.timeout = d
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New constructs a Service.
func New(engine *sequencer.Engine, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		sessions: sessions,
		locks:    &sessionLocks{},
		ttl:      DefaultSessionTTL,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("cardscan/internal/scan/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session waiting for the front side.
func (s *Service) Start(ctx context.Context) (snap *models.Snapshot, err error) {
	ctx, span := s.startSpan(ctx, "scan.Start")
	defer func() { endSpan(span, err) }()
	defer s.observe("start", time.Now())

	now := requestcontext.Now(ctx)
	session := s.engine.NewSession(id.NewScanSessionID(), now, s.ttl)
	session.SetPlatform(PlatformFromUserAgent(requestcontext.UserAgent(ctx)))
	snap = session.Snapshot()
	span.SetAttributes(attribute.String("scan.session_id", snap.ID.String()))

	if err := s.sessions.Save(ctx, snap); err != nil {
		s.logger.ErrorContext(ctx, "failed to save new scan session",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", snap.ID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start scan")
	}

	s.metrics.IncrementStarted(snap.Platform)
	s.emit(ctx, audit.EventScanStarted, snap, nil)
	s.logger.InfoContext(ctx, "scan session started",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", snap.ID.String(),
		"platform", string(snap.Platform),
	)
	return snap, nil
}

// Submit feeds one recognized text to the session. Rejected captures are
// returned as results with Accepted false.
func (s *Service) Submit(ctx context.Context, sessionID id.ScanSessionID, text string) (result *models.SubmitResult, err error) {
	ctx, span := s.startSpan(ctx, "scan.Submit", attribute.String("scan.session_id", sessionID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("submit", time.Now())

	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "text is required")
	}

	err = s.locks.RunLocked(ctx, sessionID.String(), func(ctx context.Context) error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		res, err := session.Submit(ctx, text)
		if err != nil {
			return err
		}
		snap := session.Snapshot()
		s.metrics.ObserveSubmission(snap.Platform, res)
		span.SetAttributes(
			attribute.String("scan.side", string(res.Side)),
			attribute.String("scan.reason", string(res.Reason)),
			attribute.Int("scan.score", res.Score),
		)
		s.logger.InfoContext(ctx, "scan text submitted",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID.String(),
			"side", string(res.Side),
			"reason", string(res.Reason),
			"score", res.Score,
			"state", string(res.State),
			"text_len", len(text),
		)

		if !res.Accepted {
			s.emit(ctx, audit.EventSideRejected, snap, func(e *audit.Event) {
				e.Side, e.Reason = string(res.Side), string(res.Reason)
			})
			result = &res
			return nil
		}

		if err := s.save(ctx, snap); err != nil {
			return err
		}
		s.emit(ctx, audit.EventSideAccepted, snap, func(e *audit.Event) {
			e.Side, e.Reason = string(res.Side), string(res.Reason)
		})
		if res.State == models.StateCompleted {
			s.metrics.IncrementFinished(models.StateCompleted, snap.Platform)
			s.emit(ctx, audit.EventScanCompleted, snap, func(e *audit.Event) {
				e.SubjectIDHash = audit.HashSubjectID(snap.Fields[models.FieldIDNumber])
			})
			s.logger.InfoContext(ctx, "scan session completed",
				"request_id", requestcontext.RequestID(ctx),
				"session_id", sessionID.String(),
				"fields_found", len(snap.Fields.Keys()),
			)
		}
		result = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsComplete reports whether both sides of the session were accepted.
func (s *Service) IsComplete(ctx context.Context, sessionID id.ScanSessionID) (bool, error) {
	snap, err := s.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return snap.IsComplete(), nil
}

// Get returns the current snapshot of a live session.
func (s *Service) Get(ctx context.Context, sessionID id.ScanSessionID) (snap *models.Snapshot, err error) {
	ctx, span := s.startSpan(ctx, "scan.Get", attribute.String("scan.session_id", sessionID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("get", time.Now())

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// Finalize returns the merged fields of a completed session and records the
// result when a ResultStore is configured.
func (s *Service) Finalize(ctx context.Context, sessionID id.ScanSessionID) (fields models.FieldMap, err error) {
	ctx, span := s.startSpan(ctx, "scan.Finalize", attribute.String("scan.session_id", sessionID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("finalize", time.Now())

	err = s.locks.RunLocked(ctx, sessionID.String(), func(ctx context.Context) error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		fields, err = session.Finalize(ctx)
		if err != nil {
			return err
		}
		snap := session.Snapshot()
		if s.results != nil {
			if err := s.results.SaveResult(ctx, models.ResultFromSnapshot(snap)); err != nil {
				s.logger.ErrorContext(ctx, "failed to save scan result",
					"request_id", requestcontext.RequestID(ctx),
					"session_id", sessionID.String(),
					"error", err,
				)
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save scan result")
			}
		}
		s.emit(ctx, audit.EventScanFinalized, snap, func(e *audit.Event) {
			e.SubjectIDHash = audit.HashSubjectID(fields[models.FieldIDNumber])
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// Result returns the stored result of a finalized scan. It stays readable
// after the session handle has expired.
func (s *Service) Result(ctx context.Context, sessionID id.ScanSessionID) (result *models.ScanResult, err error) {
	ctx, span := s.startSpan(ctx, "scan.Result", attribute.String("scan.session_id", sessionID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("result", time.Now())

	if s.results == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "scan result not found")
	}
	result, err = s.results.FindResult(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "scan result not found")
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to find scan result",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find scan result")
	}
	return result, nil
}

// Cancel ends a session that has not completed.
func (s *Service) Cancel(ctx context.Context, sessionID id.ScanSessionID) (err error) {
	ctx, span := s.startSpan(ctx, "scan.Cancel", attribute.String("scan.session_id", sessionID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("cancel", time.Now())

	return s.locks.RunLocked(ctx, sessionID.String(), func(ctx context.Context) error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		wasCancelled := session.State() == models.StateCancelled
		if err := session.Cancel(ctx); err != nil {
			return err
		}
		if wasCancelled {
			return nil
		}
		snap := session.Snapshot()
		if err := s.save(ctx, snap); err != nil {
			return err
		}
		s.metrics.IncrementFinished(models.StateCancelled, snap.Platform)
		s.emit(ctx, audit.EventScanCancelled, snap, nil)
		s.logger.InfoContext(ctx, "scan session cancelled",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID.String(),
		)
		return nil
	})
}

// load fetches and restores a live session. Expired sessions are removed and
// reported as not found.
func (s *Service) load(ctx context.Context, sessionID id.ScanSessionID) (*sequencer.Session, error) {
	snap, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scan session not found")
		}
		s.logger.ErrorContext(ctx, "failed to load scan session",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scan session")
	}
	if snap.IsExpired(requestcontext.Now(ctx)) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired scan session",
				"session_id", sessionID.String(),
				"error", err,
			)
		}
		return nil, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeNotFound, "scan session expired")
	}
	session, err := s.engine.Restore(snap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored scan session is corrupt")
	}
	return session, nil
}

func (s *Service) save(ctx context.Context, snap *models.Snapshot) error {
	err := s.sessions.Save(ctx, snap)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "scan session expired")
	default:
		s.logger.ErrorContext(ctx, "failed to save scan session",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", snap.ID.String(),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save scan session")
	}
}

// emit publishes an audit event. Audit failures are logged, never returned.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, snap *models.Snapshot, enrich func(*audit.Event)) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		SessionID: snap.ID,
		Action:    string(action),
		State:     string(snap.State),
		Platform:  string(snap.Platform),
		Subject:   requestcontext.Subject(ctx),
		RequestID: requestcontext.RequestID(ctx),
	}
	if enrich != nil {
		enrich(&event)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"session_id", snap.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(start))
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
