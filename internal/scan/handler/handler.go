package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
	"cardscan/pkg/platform/httputil"
	"cardscan/pkg/requestcontext"
)

// Service defines the scan operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context) (*models.Snapshot, error)
	Submit(ctx context.Context, sessionID id.ScanSessionID, text string) (*models.SubmitResult, error)
	Get(ctx context.Context, sessionID id.ScanSessionID) (*models.Snapshot, error)
	Finalize(ctx context.Context, sessionID id.ScanSessionID) (models.FieldMap, error)
	Result(ctx context.Context, sessionID id.ScanSessionID) (*models.ScanResult, error)
	Cancel(ctx context.Context, sessionID id.ScanSessionID) error
}

// Handler wires scan endpoints to the scan service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a scan handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts scan endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/scans", h.HandleStart)
	r.Get("/scans/{id}", h.HandleGet)
	r.Delete("/scans/{id}", h.HandleCancel)
	r.Post("/scans/{id}/text", h.HandleSubmit)
	r.Post("/scans/{id}/finalize", h.HandleFinalize)
	r.Get("/scans/{id}/result", h.HandleResult)
}

// HandleStart handles POST /scans.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := h.service.Start(ctx)
	if err != nil {
		h.fail(ctx, w, "start scan failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromStart(snap))
}

// HandleSubmit handles POST /scans/{id}/text.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req SubmitTextRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Submit(ctx, sessionID, req.Text)
	if err != nil {
		h.fail(ctx, w, "submit scan text failed", err, "session_id", sessionID.String())
		return
	}
	h.logger.InfoContext(ctx, "scan text processed",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID.String(),
		"accepted", result.Accepted,
		"reason", string(result.Reason),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromSubmit(result))
}

// HandleGet handles GET /scans/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Get(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "get scan failed", err, "session_id", sessionID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleFinalize handles POST /scans/{id}/finalize.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	fields, err := h.service.Finalize(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "finalize scan failed", err, "session_id", sessionID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFields(sessionID, fields))
}

// HandleResult handles GET /scans/{id}/result.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Result(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "get scan result failed", err, "session_id", sessionID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleCancel handles DELETE /scans/{id}.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(ctx, sessionID); err != nil {
		h.fail(ctx, w, "cancel scan failed", err, "session_id", sessionID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.ScanSessionID, bool) {
	sessionID, err := id.ParseScanSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ScanSessionID{}, false
	}
	return sessionID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, args ...any) {
	attrs := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, args...)
	h.logger.WarnContext(ctx, msg, attrs...)
	httputil.WriteError(w, err)
}
