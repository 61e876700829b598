package nats

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

type fakeConn struct {
	published []*nats.Msg
	pubErr    error
	flushErr  error
	drainErr  error
	drained   bool
	closed    bool
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, m)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }
func (f *fakeConn) IsConnected() bool                      { return !f.closed && !f.drained }
func (f *fakeConn) Drain() error                           { f.drained = true; return f.drainErr }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, testutil.NewMockLogger())

	err := p.Publish(context.Background(), &common.ProducerMessage{
		Topic:   "alert.created",
		Key:     []byte("field-1"),
		Value:   []byte(`{"alert_id":"a"}`),
		Headers: map[string]string{"event_type": "alert.created"},
	})
	require.NoError(t, err)

	require.Len(t, conn.published, 1)
	m := conn.published[0]
	assert.Equal(t, "alert.created", m.Subject)
	assert.Equal(t, `{"alert_id":"a"}`, string(m.Data))
	assert.Equal(t, "alert.created", m.Header.Get("event_type"))
	assert.Equal(t, "field-1", m.Header.Get(HeaderKey))
}

func TestPublish_Errors(t *testing.T) {
	ctx := context.Background()

	err := NewPublisher(&fakeConn{}, nil).Publish(ctx, &common.ProducerMessage{Value: []byte("x")})
	assert.True(t, errors.IsValidation(err))

	err = NewPublisher(&fakeConn{pubErr: nats.ErrConnectionClosed}, nil).Publish(ctx, &common.ProducerMessage{Topic: "t"})
	assert.Equal(t, errors.ErrCodeMessageQueueError, errors.GetCode(err))
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)

	err = NewPublisher(&fakeConn{flushErr: context.DeadlineExceeded}, nil).Publish(ctx, &common.ProducerMessage{Topic: "t"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, nil)
	assert.True(t, p.IsConnected())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
	assert.False(t, conn.closed)
	assert.False(t, p.IsConnected())
	assert.ErrorIs(t, p.Publish(context.Background(), &common.ProducerMessage{Topic: "t"}), ErrPublisherClosed)
}

func TestClose_DrainFailureFallsBackToClose(t *testing.T) {
	conn := &fakeConn{drainErr: stderrors.New("drain timeout")}
	log := testutil.NewMockLogger()
	require.NoError(t, NewPublisher(conn, log).Close())
	assert.True(t, conn.closed)
	assert.True(t, log.HasMessage("warn", "Failed to drain NATS connection, closing immediately"))
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(config.NATSConfig{}, nil)
	assert.True(t, errors.IsValidation(err))
}

//Personal.AI order the ending
