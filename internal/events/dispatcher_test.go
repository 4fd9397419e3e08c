package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishReachesSubscribers(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()

	var got []Event
	dispatcher.Subscribe(EventFileUploaded, func(_ context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	event := Event{ID: "e1", Type: EventFileUploaded, FileID: "f1", OwnerID: "u1", SizeBytes: 42}
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	require.Len(t, got, 1)
	assert.Equal(t, event, got[0])
}

func TestDispatcher_TypeScoped(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()

	calls := 0
	dispatcher.Subscribe(EventFileDeleted, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventFileUploaded}))
	assert.Zero(t, calls)
}

func TestDispatcher_HandlerFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()

	dispatcher.Subscribe(EventFileUploaded, func(_ context.Context, _ Event) error {
		return errors.New("handler broken")
	})
	reached := false
	dispatcher.Subscribe(EventFileUploaded, func(_ context.Context, _ Event) error {
		reached = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventFileUploaded}))
	assert.True(t, reached)
}
