package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// mockKafkaReader serves queued messages, then blocks until the context ends.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (p *capturePublisher) Publish(_ context.Context, msg *common.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func newTestConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "fieldscout-test",
		Topics:  []string{TopicIngestRequested},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			MaxRetryBackoff: 2 * time.Millisecond,
			DeadLetterTopic: TopicIngestDeadLetter,
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(newTestConsumerConfig()))

	for name, mutate := range map[string]func(*ConsumerConfig){
		"brokers": func(c *ConsumerConfig) { c.Brokers = nil },
		"group":   func(c *ConsumerConfig) { c.GroupID = "" },
		"topics":  func(c *ConsumerConfig) { c.Topics = nil },
	} {
		cfg := newTestConsumerConfig()
		mutate(&cfg)
		assert.True(t, errors.IsValidation(ValidateConsumerConfig(cfg)), name)
	}
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(
		config.KafkaConfig{Brokers: []string{"k:9092"}, GroupID: "g", AutoOffsetReset: "latest"},
		config.WorkerConfig{MaxRetries: 4, RetryBackoff: 2 * time.Second},
		TopicIngestRequested,
	)
	assert.Equal(t, []string{TopicIngestRequested}, cfg.Topics)
	assert.Equal(t, 4, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryConfig.RetryBackoff)
	assert.Equal(t, TopicIngestDeadLetter, cfg.RetryConfig.DeadLetterTopic)
}

func TestConsumer_StartTwiceAndClose(t *testing.T) {
	r := &mockKafkaReader{}
	c := NewConsumerWithReader(r, newTestConsumerConfig(), nil, testutil.NewMockLogger())

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerClosed)
	require.NoError(t, c.Close())
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{
		{Topic: TopicIngestRequested, Offset: 1, Key: []byte("field-1"), Value: []byte("a"),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventIngestRequested)}}},
		{Topic: "unrelated", Offset: 2, Value: []byte("b")},
	}}
	c := NewConsumerWithReader(r, newTestConsumerConfig(), nil, testutil.NewMockLogger())

	got := make(chan *common.Message, 1)
	c.Subscribe(TopicIngestRequested, func(_ context.Context, msg *common.Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	select {
	case msg := <-got:
		assert.Equal(t, "field-1", string(msg.Key))
		assert.Equal(t, EventIngestRequested, msg.Headers["event_type"])
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	assert.Eventually(t, func() bool { return r.commits() == 2 }, time.Second, 5*time.Millisecond,
		"messages without a handler are committed too")
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestProcessMessage_RetrySuccess(t *testing.T) {
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), nil, testutil.NewMockLogger())

	calls := 0
	handler := func(context.Context, *common.Message) error {
		calls++
		if calls < 2 {
			return errors.New(errors.ErrCodeIngestInProgress, "locked")
		}
		return nil
	}
	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: TopicIngestRequested}, handler))
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(1), c.Stats().Retried)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestProcessMessage_RetryExhaustedDeadLetters(t *testing.T) {
	dlq := &capturePublisher{}
	log := testutil.NewMockLogger()
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), dlq, log)

	calls := 0
	handler := func(context.Context, *common.Message) error {
		calls++
		return stderrors.New("database unavailable")
	}
	msg := &common.Message{Topic: TopicIngestRequested, Key: []byte("field-1"), Value: []byte("payload"),
		Headers: map[string]string{"event_type": EventIngestRequested}}

	require.NoError(t, c.processMessage(context.Background(), msg, handler))
	assert.Equal(t, 3, calls, "first attempt plus two retries")

	require.Len(t, dlq.msgs, 1)
	dl := dlq.msgs[0]
	assert.Equal(t, TopicIngestDeadLetter, dl.Topic)
	assert.Equal(t, []byte("payload"), dl.Value)
	assert.Equal(t, TopicIngestRequested, dl.Headers[HeaderOriginalTopic])
	assert.Equal(t, "database unavailable", dl.Headers[HeaderErrorMessage])
	assert.Equal(t, "3", dl.Headers[HeaderAttempts])
	assert.Equal(t, EventIngestRequested, dl.Headers["event_type"])
	assert.NotContains(t, msg.Headers, HeaderOriginalTopic, "original headers untouched")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.DeadLettered)
	assert.True(t, log.HasMessage("error", "Message processing failed"))
}

func TestProcessMessage_ValidationErrorNotRetried(t *testing.T) {
	dlq := &capturePublisher{}
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), dlq, testutil.NewMockLogger())

	calls := 0
	handler := func(context.Context, *common.Message) error {
		calls++
		return errors.NewValidation("grid shapes differ")
	}
	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: TopicIngestRequested}, handler))
	assert.Equal(t, 1, calls)
	assert.Len(t, dlq.msgs, 1)
	assert.Equal(t, "1", dlq.msgs[0].Headers[HeaderAttempts])
}

func TestProcessMessage_DeadLetterFailureIsLogged(t *testing.T) {
	dlq := &capturePublisher{err: stderrors.New("no broker")}
	log := testutil.NewMockLogger()
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), dlq, log)

	err := c.processMessage(context.Background(), &common.Message{Topic: TopicIngestRequested},
		func(context.Context, *common.Message) error { return errors.NewValidation("bad") })
	require.NoError(t, err)
	assert.True(t, log.HasMessage("error", "Failed to send to dead letter topic"))
	assert.Zero(t, c.Stats().DeadLettered)
}

func TestProcessMessage_ContextCancelledDuringBackoff(t *testing.T) {
	cfg := newTestConsumerConfig()
	cfg.RetryConfig.RetryBackoff = time.Hour
	cfg.RetryConfig.MaxRetryBackoff = time.Hour
	c := NewConsumerWithReader(&mockKafkaReader{}, cfg, nil, testutil.NewMockLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.processMessage(ctx, &common.Message{}, func(context.Context, *common.Message) error {
		return stderrors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
