// Package consumer adapts queued messages to application use cases.
package consumer

import (
	"context"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/ingestion"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// SourceKafka labels ingestions that arrived through the queue.
const SourceKafka = "kafka"

// IngestHandler runs field.ingest.requested events through the ingestion
// pipeline.
type IngestHandler struct {
	svc     ingestion.Service
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewIngestHandler creates the handler. metrics may be nil.
func NewIngestHandler(svc ingestion.Service, metrics *prometheus.AppMetrics, logger logging.Logger) *IngestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IngestHandler{svc: svc, metrics: metrics, logger: logger.Named("ingest_consumer")}
}

// Handle decodes the envelope and ingests its payload. Malformed envelopes
// and invalid grids come back as validation or serialization errors, which the
// consumer dead-letters without retrying; a concurrent ingestion of the same
// field and day comes back as a conflict and is retried.
func (h *IngestHandler) Handle(ctx context.Context, msg *common.Message) error {
	start := time.Now()
	defer func() { prometheus.RecordMessage(h.metrics, msg.Topic, time.Since(start)) }()

	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventIngestRequested {
		return errors.NewValidation("unexpected event type %q on %s", env.EventType, msg.Topic)
	}

	var req ingestion.IngestRequest
	if err := env.DecodePayload(&req); err != nil {
		return err
	}
	req.Source = SourceKafka

	res, err := h.svc.Ingest(ctx, &req)
	if err != nil {
		h.logger.Warn("Queued ingestion failed",
			logging.String("event_id", env.EventID),
			logging.String("field_id", req.FieldID),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return err
	}

	h.logger.Info("Queued ingestion completed",
		logging.String("event_id", env.EventID),
		logging.String("field_id", req.FieldID),
		logging.String("date", res.Date),
		logging.String("record_id", res.RecordID),
		logging.Int("alerts_generated", res.Summary.AlertsGenerated))
	return nil
}

// Register subscribes the handler to the ingest topic.
func (h *IngestHandler) Register(c *kafka.Consumer) {
	c.Subscribe(kafka.TopicIngestRequested, h.Handle)
}

//Personal.AI order the ending
