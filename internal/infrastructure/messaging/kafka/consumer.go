package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeInternal, "consumer closed")
)

// Header keys attached to dead-lettered messages.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderErrorMessage  = "error_message"
	HeaderAttempts      = "attempts"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers            []string
	GroupID            string
	Topics             []string
	AutoOffsetReset    string
	AutoCommitInterval time.Duration
	SessionTimeout     time.Duration
	HeartbeatInterval  time.Duration
	MaxWait            time.Duration
	FetchMinBytes      int
	FetchMaxBytes      int
	RetryConfig        RetryConfig
}

// ConsumerConfigFrom builds the ingestion consumer configuration.
func ConsumerConfigFrom(kc config.KafkaConfig, wc config.WorkerConfig, topics ...string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:         kc.Brokers,
		GroupID:         kc.GroupID,
		Topics:          topics,
		AutoOffsetReset: kc.AutoOffsetReset,
		RetryConfig: RetryConfig{
			MaxRetries:      wc.MaxRetries,
			RetryBackoff:    wc.RetryBackoff,
			DeadLetterTopic: TopicIngestDeadLetter,
		},
	}
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes a single message. Both the Kafka and NATS producers
// satisfy it.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// ConsumerStats is a point-in-time copy of the consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
}

type consumerMetrics struct {
	consumed     atomic.Int64
	processed    atomic.Int64
	failed       atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
}

// Consumer dispatches messages to per-topic handlers, retrying failures with
// exponential backoff and dead-lettering those that never succeed.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter Publisher
	metrics    consumerMetrics

	fetchErrorDelay time.Duration
}

// NewConsumer creates a consumer group reader over cfg.Topics. deadLetter
// may be nil, in which case exhausted messages are logged and dropped.
func NewConsumer(cfg ConsumerConfig, deadLetter Publisher, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	applyConsumerDefaults(&cfg)

	readerCfg := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       cfg.Topics,
		MinBytes:          cfg.FetchMinBytes,
		MaxBytes:          cfg.FetchMaxBytes,
		MaxWait:           cfg.MaxWait,
		CommitInterval:    cfg.AutoCommitInterval,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       kafka.FirstOffset,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return NewConsumerWithReader(kafka.NewReader(readerCfg), cfg, deadLetter, logger), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r ReaderInterface, cfg ConsumerConfig, deadLetter Publisher, logger logging.Logger) *Consumer {
	applyConsumerDefaults(&cfg)
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		reader:          r,
		config:          cfg,
		logger:          logger,
		handlers:        make(map[string]common.MessageHandler),
		deadLetter:      deadLetter,
		fetchErrorDelay: time.Second,
	}
}

func applyConsumerDefaults(cfg *ConsumerConfig) {
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 3 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Second
	}
	if cfg.FetchMinBytes == 0 {
		cfg.FetchMinBytes = 1
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 10 * 1024 * 1024
	}
	if cfg.RetryConfig.MaxRetries == 0 {
		cfg.RetryConfig.MaxRetries = 3
	}
	if cfg.RetryConfig.RetryBackoff == 0 {
		cfg.RetryConfig.RetryBackoff = time.Second
	}
	if cfg.RetryConfig.MaxRetryBackoff == 0 {
		cfg.RetryConfig.MaxRetryBackoff = 30 * time.Second
	}
}

// Subscribe registers handler for topic, replacing any previous handler.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop in the background.
func (c *Consumer) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.Strings("topics", c.config.Topics))
	return nil
}

// Close stops the loop, waits for the in-flight message and closes the reader.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.running.Store(false)
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage error", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.fetchErrorDelay):
			}
			continue
		}
		c.metrics.consumed.Add(1)

		msg := fromKafkaMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, msg, handler); err != nil {
			// Only a cancelled context ends up here; leave the offset
			// uncommitted so the message is redelivered.
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err), logging.Int64("offset", m.Offset))
		}
	}
}

// processMessage runs handler with retries. It returns an error only when ctx
// is cancelled; exhausted messages are dead-lettered and reported as handled.
func (c *Consumer) processMessage(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		c.metrics.processed.Add(1)
		return nil
	}

	rc := c.config.RetryConfig
	backoff := rc.RetryBackoff
	attempts := 1
	for i := 0; i < rc.MaxRetries; i++ {
		if !retryable(err) {
			break
		}
		c.metrics.retried.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		attempts++
		if err = handler(ctx, msg); err == nil {
			c.metrics.processed.Add(1)
			return nil
		}

		backoff *= 2
		if backoff > rc.MaxRetryBackoff {
			backoff = rc.MaxRetryBackoff
		}
	}

	c.metrics.failed.Add(1)
	c.logger.Error("Message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))

	if c.deadLetter == nil || rc.DeadLetterTopic == "" {
		return nil
	}

	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = err.Error()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &common.ProducerMessage{
		Topic:   rc.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if dlErr := c.deadLetter.Publish(ctx, dl); dlErr != nil {
		c.logger.Error("Failed to send to dead letter topic", logging.Err(dlErr))
		return nil
	}
	c.metrics.deadLettered.Add(1)
	return nil
}

// retryable reports whether a handler error can succeed on a later attempt.
// Validation failures and malformed payloads never will.
func retryable(err error) bool {
	return !errors.IsValidation(err) && !errors.IsCode(err, errors.ErrCodeSerialization)
}

// Stats returns a snapshot of the consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.metrics.consumed.Load(),
		Processed:    c.metrics.processed.Load(),
		Failed:       c.metrics.failed.Load(),
		Retried:      c.metrics.retried.Load(),
		DeadLettered: c.metrics.deadLettered.Load(),
	}
}

func fromKafkaMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.NewValidation("brokers required")
	}
	if cfg.GroupID == "" {
		return errors.NewValidation("group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.NewValidation("at least one topic required")
	}
	return nil
}

//Personal.AI order the ending
