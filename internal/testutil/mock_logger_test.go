package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_WithSharesBuffer(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.With(logging.String("field_id", "f1")).Warn("skipped cell")

	msgs := logger.GetMessages()
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Fields, 1)
	assert.Equal(t, "field_id", msgs[0].Fields[0].Key)
	assert.Equal(t, 1, logger.CountLevel("warn"))
}

//Personal.AI order the ending
