package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "cardscan/pkg/platform/audit"
)

// Sink stores events under a deterministic ID so redelivery is harmless.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// eventNamespace seeds record-derived event IDs.
var eventNamespace = uuid.MustParse("5f0c6c1e-8d1a-4f7e-9c52-3b7d2c9e41a0")

// EventID derives a stable ID from the record's position in the log.
func EventID(rec *kgo.Record) uuid.UUID {
	pos := rec.Topic + "/" + strconv.Itoa(int(rec.Partition)) + "/" + strconv.FormatInt(rec.Offset, 10)
	return uuid.NewSHA1(eventNamespace, []byte(pos))
}

// ComplianceHandler stores compliance events. Events that cannot be tied
// to a scan are rejected loudly.
type ComplianceHandler struct {
	sink   Sink
	logger *slog.Logger
}

func NewComplianceHandler(sink Sink, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{sink: sink, logger: logger}
}

func (h *ComplianceHandler) Handle(ctx context.Context, rec *kgo.Record) error {
	eventID := EventID(rec)
	var event audit.Event
	if err := json.Unmarshal(rec.Value, &event); err != nil {
		h.logger.Error("CRITICAL: failed to unmarshal compliance event",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}
	if event.SessionID.IsNil() {
		h.logger.Error("CRITICAL: compliance event missing session_id",
			"event_id", eventID,
			"action", event.Action,
		)
		return nil
	}

	if err := h.sink.AppendWithID(ctx, eventID, event); err != nil {
		h.logger.Error("failed to store compliance event",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("store compliance event: %w", err)
	}
	h.logger.Debug("stored compliance event",
		"event_id", eventID,
		"action", event.Action,
		"session_id", event.SessionID.String(),
	)
	return nil
}

// OpsHandler stores operational events on a best-effort basis.
type OpsHandler struct {
	sink   Sink
	logger *slog.Logger
}

func NewOpsHandler(sink Sink, logger *slog.Logger) *OpsHandler {
	return &OpsHandler{sink: sink, logger: logger}
}

func (h *OpsHandler) Handle(ctx context.Context, rec *kgo.Record) error {
	eventID := EventID(rec)
	var event audit.Event
	if err := json.Unmarshal(rec.Value, &event); err != nil {
		h.logger.Debug("failed to unmarshal ops event",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}
	if err := h.sink.AppendWithID(ctx, eventID, event); err != nil {
		h.logger.Warn("failed to store ops event, dropping",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
	}
	return nil
}
