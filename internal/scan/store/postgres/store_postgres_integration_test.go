//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
	"cardscan/pkg/platform/sentinel"
	"cardscan/pkg/testutil/containers"
)

type ResultStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *ResultStore
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreSuite))
}

func (s *ResultStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewResultStore(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
	s.Require().NoError(s.store.EnsureSchema(context.Background()), "schema must be re-runnable")
}

func (s *ResultStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE scan_results`)
	s.Require().NoError(err)
}

func (s *ResultStoreSuite) result() *models.ScanResult {
	return &models.ScanResult{
		SessionID: id.NewScanSessionID(),
		Fields: models.FieldMap{
			models.FieldIDNumber:   "784-1991-1234567-3",
			models.FieldCardNumber: "0123456789",
			models.FieldMRZData:    "ILARE<<<<<<\n<<<<<<",
		},
		MRZLines:    []string{"ILARE<<<<<<", "<<<<<<"},
		Platform:    models.PlatformAndroid,
		CompletedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *ResultStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	want := s.result()
	s.Require().NoError(s.store.SaveResult(ctx, want))

	got, err := s.store.FindResult(ctx, want.SessionID)
	s.Require().NoError(err)
	s.Equal(want.SessionID, got.SessionID)
	s.Equal(want.Fields, got.Fields)
	s.Equal(want.MRZLines, got.MRZLines)
	s.Equal(want.Platform, got.Platform)
	s.True(want.CompletedAt.Equal(got.CompletedAt))
}

func (s *ResultStoreSuite) TestSaveIsUpsert() {
	ctx := context.Background()
	r := s.result()
	s.Require().NoError(s.store.SaveResult(ctx, r))

	r.Fields[models.FieldOccupation] = "ENGINEER"
	r.MRZLines = nil
	s.Require().NoError(s.store.SaveResult(ctx, r))

	got, err := s.store.FindResult(ctx, r.SessionID)
	s.Require().NoError(err)
	s.Equal("ENGINEER", got.Fields[models.FieldOccupation])
	s.Empty(got.MRZLines)

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_results`).Scan(&count))
	s.Equal(1, count)
}

func (s *ResultStoreSuite) TestFindMissing() {
	_, err := s.store.FindResult(context.Background(), id.NewScanSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
