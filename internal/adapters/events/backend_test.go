package events_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/offerbot/internal/adapters/events"
)

func TestNewBackend(t *testing.T) {
	pub, err := events.NewBackend(events.BackendNone, nil, slog.Default())
	require.NoError(t, err)
	assert.Nil(t, pub)

	pub, err = events.NewBackend(events.BackendGoChannel, nil, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.NoError(t, pub.Close())

	_, err = events.NewBackend(events.BackendRedis, nil, slog.Default())
	assert.Error(t, err)

	_, err = events.NewBackend("kafka", nil, slog.Default())
	assert.Error(t, err)
}

func TestNewBackend_GoChannelWarnsEventsAreLocal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	pub, err := events.NewBackend(events.BackendGoChannel, nil, logger)
	require.NoError(t, err)
	defer pub.Close()

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "events are dropped")
}
