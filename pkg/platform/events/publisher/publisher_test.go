package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events/sink/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	sink := memory.NewInMemorySink()
	pub := NewPublisher(sink)
	defer pub.Close()

	event := events.Event{
		Name:    events.EventTokenMinted,
		Subject: "token-1",
		Actor:   "cisco-systems",
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	got, err := sink.ListBySubject(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.EventTokenMinted, got[0].Name)
	assert.False(t, got[0].Timestamp.IsZero(), "publisher must stamp zero timestamps")
}

func TestPublisher_AsyncMode(t *testing.T) {
	sink := memory.NewInMemorySink()
	pub := NewPublisher(sink, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), events.Event{
		Name:    events.EventListingSold,
		Subject: "listing-1",
	})
	require.NoError(t, err)

	// Wait for async processing
	require.Eventually(t, func() bool {
		got, err := sink.ListBySubject(context.Background(), "listing-1")
		return err == nil && len(got) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := memory.NewInMemorySink()
	pub := NewPublisher(sink, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), events.Event{
			Name:    events.EventTokenMinted,
			Subject: "token-2",
		})
		require.NoError(t, err)
	}

	// Close should drain all buffered events
	pub.Close()

	got, err := sink.ListBySubject(context.Background(), "token-2")
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
