package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"Orbit/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublishWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewEventPublisher(w, "orbit.scrape.completed", logger.Discard())

	err := p.Publish(context.Background(), ScrapeCompletedEvent{
		UserID:     7,
		Successful: []string{"LinkedIn Profile"},
		Failed:     []string{},
		EntryCount: 3,
		ScrapedAt:  "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "orbit.scrape.completed", w.msgs[0].Topic)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var got ScrapeCompletedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 3, got.EntryCount)
	assert.Equal(t, []string{"LinkedIn Profile"}, got.Successful)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewEventPublisher(&fakeWriter{err: boom}, "t", logger.Discard())
	assert.ErrorIs(t, p.Publish(context.Background(), ScrapeCompletedEvent{UserID: 1}), boom)
}
