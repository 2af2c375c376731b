package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cardscan/internal/scan/handler/mocks"
	"cardscan/internal/scan/models"
	"cardscan/internal/scan/sequencer"
	"cardscan/internal/scan/service"
	"cardscan/internal/scan/store/memory"
	id "cardscan/pkg/domain"
	dErrors "cardscan/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/scan-mocks.go -package=mocks Service
type ScanHandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *mocks.MockService
}

func TestScanHandlerSuite(t *testing.T) {
	suite.Run(t, new(ScanHandlerSuite))
}

func (s *ScanHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

func (s *ScanHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ScanHandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *ScanHandlerSuite) TestStart() {
	sessionID := id.NewScanSessionID()
	expires := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)
	s.service.EXPECT().Start(gomock.Any()).Return(&models.Snapshot{
		ID: sessionID, State: models.StateFront, ExpiresAt: expires,
	}, nil)

	rec := s.do(http.MethodPost, "/scans", nil)

	s.Equal(http.StatusCreated, rec.Code)
	body := s.decode(rec)
	s.Equal(sessionID.String(), body["session_id"])
	s.Equal("front", body["state"])
	s.Equal("2026-03-01T09:10:00Z", body["expires_at"])
}

func (s *ScanHandlerSuite) TestSubmit() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Submit(gomock.Any(), sessionID, "UNITED ARAB EMIRATES\n784-1991-1234567-3").
		Return(&models.SubmitResult{
			Accepted: true, State: models.StateBack, Reason: models.ReasonAccepted, Side: models.SideFront, Score: 9,
		}, nil)

	rec := s.do(http.MethodPost, "/scans/"+sessionID.String()+"/text",
		map[string]string{"text": "UNITED ARAB EMIRATES\n784-1991-1234567-3"})

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(true, body["accepted"])
	s.Equal("back", body["state"])
	s.Equal("accepted", body["reason"])
	s.Equal("front", body["side"])
	s.NotContains(body, "score")
}

func (s *ScanHandlerSuite) TestSubmit_BadRequests() {
	sessionID := id.NewScanSessionID().String()
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"invalid session id", "/scans/not-a-uuid/text", `{"text":"x"}`, http.StatusBadRequest},
		{"empty text", "/scans/" + sessionID + "/text", `{"text":"   "}`, http.StatusBadRequest},
		{"missing body", "/scans/" + sessionID + "/text", ``, http.StatusBadRequest},
		{"unknown field", "/scans/" + sessionID + "/text", `{"txt":"x"}`, http.StatusBadRequest},
		{"oversized text", "/scans/" + sessionID + "/text", `{"text":"` + strings.Repeat("A", MaxTextBytes+1) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			s.Equal(tt.want, rec.Code)
			s.Contains([]string{"bad_request", "invalid_input", "validation_error"}, s.decode(rec)["error"])
		})
	}
}

func (s *ScanHandlerSuite) TestGet() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Get(gomock.Any(), sessionID).Return(&models.Snapshot{
		ID:    sessionID,
		State: models.StateBack,
		Front: &models.SideText{Side: models.SideFront, Text: "secret OCR text"},
	}, nil)

	rec := s.do(http.MethodGet, "/scans/"+sessionID.String(), nil)

	s.Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "secret OCR text")
	body := s.decode(rec)
	s.Equal("back", body["state"])
	s.Equal(false, body["complete"])
	s.Equal(true, body["front_accepted"])
	s.Equal(false, body["back_accepted"])
}

func (s *ScanHandlerSuite) TestFinalize() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Finalize(gomock.Any(), sessionID).Return(models.FieldMap{
		models.FieldCardNumber: "0123456789",
		models.FieldOccupation: "ENGINEER",
		models.FieldEmployer:   "  ",
	}, nil)

	rec := s.do(http.MethodPost, "/scans/"+sessionID.String()+"/finalize", nil)

	s.Equal(http.StatusOK, rec.Code)
	var resp FinalizeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(sessionID.String(), resp.SessionID)
	s.Equal(map[string]string{"cardNumber": "0123456789", "occupation": "ENGINEER"}, resp.Fields)
}

func (s *ScanHandlerSuite) TestFinalize_Incomplete() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Finalize(gomock.Any(), sessionID).
		Return(nil, dErrors.Wrap(models.ErrIncompleteScan, dErrors.CodeConflict, "both sides must be accepted before finalize"))

	rec := s.do(http.MethodPost, "/scans/"+sessionID.String()+"/finalize", nil)

	s.Equal(http.StatusConflict, rec.Code)
	body := s.decode(rec)
	s.Equal("conflict", body["error"])
	s.Equal("both sides must be accepted before finalize", body["error_description"])
}

func (s *ScanHandlerSuite) TestResult() {
	sessionID := id.NewScanSessionID()
	completed := time.Date(2026, 3, 1, 9, 2, 0, 0, time.UTC)
	s.service.EXPECT().Result(gomock.Any(), sessionID).Return(&models.ScanResult{
		SessionID:   sessionID,
		Fields:      models.FieldMap{models.FieldCardNumber: "0123456789", models.FieldEmployer: " "},
		MRZLines:    []string{"ILARE1234567890784199112345673<<<"},
		Platform:    models.PlatformIOS,
		CompletedAt: completed,
	}, nil)

	rec := s.do(http.MethodGet, "/scans/"+sessionID.String()+"/result", nil)

	s.Equal(http.StatusOK, rec.Code)
	var resp ResultResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(sessionID.String(), resp.SessionID)
	s.Equal(map[string]string{"cardNumber": "0123456789"}, resp.Fields)
	s.Equal("ios", resp.Platform)
	s.True(completed.Equal(resp.CompletedAt))
	s.NotContains(rec.Body.String(), "mrz_lines")
}

func (s *ScanHandlerSuite) TestResult_NotFound() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Result(gomock.Any(), sessionID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "scan result not found"))

	rec := s.do(http.MethodGet, "/scans/"+sessionID.String()+"/result", nil)

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("not_found", s.decode(rec)["error"])
}

func (s *ScanHandlerSuite) TestCancel() {
	sessionID := id.NewScanSessionID()
	s.service.EXPECT().Cancel(gomock.Any(), sessionID).Return(nil)

	rec := s.do(http.MethodDelete, "/scans/"+sessionID.String(), nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *ScanHandlerSuite) TestErrorMapping() {
	sessionID := id.NewScanSessionID()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "scan session not found"), http.StatusNotFound, "not_found"},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "redis: connection refused"), http.StatusInternalServerError, "internal_error"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "scan operation aborted"), http.StatusGatewayTimeout, "timeout"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().Get(gomock.Any(), sessionID).Return(nil, tt.err)
			rec := s.do(http.MethodGet, "/scans/"+sessionID.String(), nil)
			s.Equal(tt.wantStatus, rec.Code)
			body := s.decode(rec)
			s.Equal(tt.wantCode, body["error"])
			if tt.wantCode == "internal_error" {
				s.NotContains(body, "error_description")
			}
		})
	}
}

// TestScanFlow drives the real service through the router.
func TestScanFlow(t *testing.T) {
	const (
		front         = "UNITED ARAB EMIRATES\nIDENTITY CARD\n784-1991-1234567-3\nNAME: JOHN SMITH\nNationality: EGYPT"
		back          = "Card Number 0123456789\nOccupation: ENGINEER\nEmployer: ACME LLC\nIssuing Place: Dubai\n<<<<<<<<<<<<<<<<"
		backSharingID = "Card Number 123456789\nOccupation: CLERK\n784-1991-1234567-3\n<<<<<<<<<<<<"
	)
	store := memory.NewInMemoryStore()
	svc := service.New(sequencer.NewEngine(sequencer.Config{}), store, service.WithResultStore(store))
	router := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(router)

	call := func(method, path, body string) (int, map[string]any) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader).WithContext(context.Background())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		if rec.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		}
		return rec.Code, out
	}
	text := func(s string) string {
		b, _ := json.Marshal(map[string]string{"text": s})
		return string(b)
	}

	code, started := call(http.MethodPost, "/scans", "")
	require.Equal(t, http.StatusCreated, code)
	base := "/scans/" + started["session_id"].(string)

	code, _ = call(http.MethodPost, base+"/finalize", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(http.MethodGet, base+"/result", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, res := call(http.MethodPost, base+"/text", text(front))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, res["accepted"])
	assert.Equal(t, "back", res["state"])

	code, res = call(http.MethodPost, base+"/text", text(backSharingID))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, res["accepted"])
	assert.Equal(t, "duplicate_side", res["reason"])
	assert.Equal(t, "back", res["state"])

	code, res = call(http.MethodPost, base+"/text", text(back))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", res["state"])

	code, res = call(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, res["complete"])

	code, res = call(http.MethodPost, base+"/finalize", "")
	require.Equal(t, http.StatusOK, code)
	fields := res["fields"].(map[string]any)
	assert.Equal(t, "784-1991-1234567-3", fields["idNumber"])
	assert.Equal(t, "JOHN SMITH", fields["nameEn"])
	assert.Equal(t, "JOHN SMITH", fields["fullName"])
	assert.Equal(t, "EGYPT", fields["nationality"])
	assert.Equal(t, "0123456789", fields["cardNumber"])
	assert.Equal(t, "ENGINEER", fields["occupation"])
	assert.Equal(t, "ACME LLC", fields["employer"])
	assert.Equal(t, "Dubai", fields["issuingPlace"])
	assert.NotEmpty(t, fields["mrzData"])

	code, res = call(http.MethodGet, base+"/result", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, fields, res["fields"])

	code, res = call(http.MethodPost, base+"/text", text(back))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", res["error"])

	code, _ = call(http.MethodDelete, base, "")
	assert.Equal(t, http.StatusConflict, code)
}
