//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "cardscan/pkg/domain"
	audit "cardscan/pkg/platform/audit"
	"cardscan/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
	s.Require().NoError(s.store.EnsureSchema(context.Background()), "schema must be re-runnable")
}

func (s *AuditStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE scan_audit_events`)
	s.Require().NoError(err)
}

func (s *AuditStoreSuite) TestListBySessionInOrder() {
	ctx := context.Background()
	sessionID := id.NewScanSessionID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base.Add(time.Second), SessionID: sessionID, Action: string(audit.EventSideAccepted), Side: "front",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base, SessionID: sessionID, Action: string(audit.EventScanStarted), Platform: "android",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base, SessionID: id.NewScanSessionID(), Action: string(audit.EventScanStarted),
	}))

	events, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventScanStarted), events[0].Action)
	s.Equal("android", events[0].Platform)
	s.Equal(audit.CategoryOperations, events[0].Category)
	s.Equal(sessionID, events[1].SessionID)
	s.Equal("front", events[1].Side)
}

func (s *AuditStoreSuite) TestAppendWithIDIsIdempotent() {
	ctx := context.Background()
	eventID := uuid.New()
	event := audit.Event{
		Timestamp:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		SessionID:     id.NewScanSessionID(),
		Action:        string(audit.EventScanFinalized),
		SubjectIDHash: audit.HashSubjectID("784-1991-1234567-3"),
	}

	s.Require().NoError(s.store.AppendWithID(ctx, eventID, event))
	s.Require().NoError(s.store.AppendWithID(ctx, eventID, event))

	events, err := s.store.ListBySession(ctx, event.SessionID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.CategoryCompliance, events[0].Category, "category derives from action")
	s.Equal(event.SubjectIDHash, events[0].SubjectIDHash)
}

func (s *AuditStoreSuite) TestListRecent() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			SessionID: id.NewScanSessionID(),
			Action:    string(audit.EventScanStarted),
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.True(events[0].Timestamp.After(events[1].Timestamp))
}
