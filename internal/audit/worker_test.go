package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPersistsQueuedEvents(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	publisher := NewChannelPublisher(inbox)
	require.NoError(t, publisher.Emit(ctx, Event{Action: EventCandidateSubmitted, Subject: "c-1"}))

	require.Eventually(t, func() bool {
		events, err := store.ListBySubject(context.Background(), "c-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerDrainsInboxOnShutdown(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	worker := NewWorker(store, inbox)

	// Buffered events must outlive the cancellation: requests that completed
	// just before shutdown already reported success to their callers.
	for i := 0; i < 3; i++ {
		inbox <- Event{Action: EventTenantSyncCompleted, Subject: "t-1"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, worker.Run(ctx), context.Canceled)

	events, err := store.ListBySubject(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
