package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// Topics.
const (
	TopicIngestRequested  = "field.ingest.requested"
	TopicFieldIngested    = "field.ingested"
	TopicAlertCreated     = "alert.created"
	TopicIngestDeadLetter = "dead_letter.ingest"
)

// Event types carried in EventEnvelope.EventType.
const (
	EventIngestRequested = "field.ingest.requested"
	EventFieldIngested   = "field.ingested"
	EventAlertCreated    = "alert.created"
)

// SchemaVersion is stamped on every envelope this service produces.
const SchemaVersion = "v1"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// FieldIngestedPayload announces a committed daily record.
type FieldIngestedPayload struct {
	FieldID         string    `json:"field_id"`
	Date            string    `json:"date"`
	RecordID        string    `json:"record_id"`
	PestCount       int       `json:"pest_count"`
	AvgCanopy       float64   `json:"avg_canopy"`
	AlertsGenerated int       `json:"alerts_generated"`
	CriticalZones   int       `json:"critical_zones"`
	IngestedAt      time.Time `json:"ingested_at"`
}

// AlertCreatedPayload announces one generated alert.
type AlertCreatedPayload struct {
	AlertID   string                 `json:"alert_id"`
	FieldID   string                 `json:"field_id"`
	Date      string                 `json:"date"`
	AlertType string                 `json:"alert_type"`
	Severity  string                 `json:"severity"`
	ZoneID    string                 `json:"zone_id"`
	Message   string                 `json:"message"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewEventEnvelope wraps payload in a fresh envelope.
func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "envelope has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload").WithDetail("event_type=" + e.EventType)
	}
	return nil
}

// ToMessage serializes the envelope for topic, keyed by key so that every
// event for one field lands on the same partition.
func (e *EventEnvelope) ToMessage(topic, key string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	msg := &common.ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// MessageToEventEnvelope decodes a consumed message.
func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic administration
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the service's topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to dial kafka")
	}
	return NewTopicManagerWithConn(conn, logger), nil
}

// NewTopicManagerWithConn wraps an existing connection.
func NewTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}
}

// CreateTopic creates cfg; an existing topic is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.ErrCodeValidation, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if stderrors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to create topic").WithDetail("topic=" + cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

// TopicExists reports whether name has at least one partition.
func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every topic in topics.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the broker connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

const day = int64(24 * time.Hour / time.Millisecond)

// DefaultTopics returns the service's topics with the given sizing.
func DefaultTopics(partitions, replication int) []TopicConfig {
	if partitions <= 0 {
		partitions = 3
	}
	if replication <= 0 {
		replication = 1
	}
	return []TopicConfig{
		{Name: TopicIngestRequested, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: TopicFieldIngested, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 30 * day},
		{Name: TopicAlertCreated, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 90 * day},
		{Name: TopicIngestDeadLetter, NumPartitions: 1, ReplicationFactor: replication, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
