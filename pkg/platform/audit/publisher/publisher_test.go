package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	id "cardscan/pkg/domain"
	audit "cardscan/pkg/platform/audit"
	"cardscan/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeOnlyStore struct{}

func (writeOnlyStore) Append(context.Context, audit.Event) error { return nil }

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

// stalledOpsStore blocks operations appends until release is closed.
type stalledOpsStore struct {
	*memory.InMemoryStore
	release chan struct{}
}

func (s *stalledOpsStore) Append(ctx context.Context, event audit.Event) error {
	if event.Category == audit.CategoryOperations {
		<-s.release
	}
	return s.InMemoryStore.Append(ctx, event)
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	sessionID := id.NewScanSessionID()
	event := audit.Event{
		SessionID: sessionID,
		Action:    string(audit.EventScanStarted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventScanStarted), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	sessionID := id.NewScanSessionID()
	err := pub.Emit(context.Background(), audit.Event{
		SessionID: sessionID,
		Action:    string(audit.EventScanCompleted),
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	events, err := pub.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	sessionID := id.NewScanSessionID()
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			SessionID: sessionID,
			Action:    string(audit.EventSideRejected),
		})
		require.NoError(t, err)
	}

	require.NoError(t, pub.Close())

	events, err := store.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventScanStarted)})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	sessionID := id.NewScanSessionID()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				SessionID: sessionID,
				Action:    string(audit.EventSideAccepted),
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_ContextCancellation(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventScanStarted)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	sessionID := id.NewScanSessionID()
	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{
		SessionID: sessionID,
		Action:    string(audit.EventScanStarted),
	})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.False(t, events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	sessionID := id.NewScanSessionID()
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		SessionID: sessionID,
		Action:    string(audit.EventScanStarted),
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEventsKeepOrder(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	sessionID := id.NewScanSessionID()
	actions := []audit.AuditEvent{audit.EventScanStarted, audit.EventSideAccepted, audit.EventScanCancelled}
	for _, action := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{SessionID: sessionID, Action: string(action)}))
	}

	result, err := pub.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, action := range actions {
		assert.Equal(t, string(action), result[i].Action)
	}
}

func TestPublisher_WriteOnlyStore(t *testing.T) {
	pub := NewPublisher(writeOnlyStore{})
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventScanStarted)}))

	_, err := pub.List(context.Background(), id.NewScanSessionID())
	assert.ErrorIs(t, err, ErrNotReadable)
}

func TestPublisher_SyncModeSurfacesStoreErrors(t *testing.T) {
	pub := NewPublisher(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventScanStarted)})
	assert.Error(t, err)
}

func TestPublisher_ComplianceEventsSkipFullBuffer(t *testing.T) {
	store := &stalledOpsStore{InMemoryStore: memory.NewInMemoryStore(), release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))
	ctx := context.Background()
	sessionID := id.NewScanSessionID()

	// One event held by the worker, one in the buffer, the rest rejected.
	var fullErr error
	for range 3 {
		if err := pub.Emit(ctx, audit.Event{SessionID: sessionID, Action: string(audit.EventSideAccepted)}); err != nil {
			fullErr = err
		}
	}
	require.ErrorIs(t, fullErr, ErrBufferFull)

	for range 4 {
		require.NoError(t, pub.Emit(ctx, audit.Event{SessionID: sessionID, Action: string(audit.EventScanFinalized)}))
	}
	events, err := store.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, events, 4)
	for _, e := range events {
		assert.Equal(t, audit.CategoryCompliance, e.Category)
	}

	close(store.release)
	require.NoError(t, pub.Close())
}

func TestPublisher_ComplianceStoreErrorsSurfaceInAsyncMode(t *testing.T) {
	pub := NewPublisher(failingStore{}, WithAsyncBuffer(4))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventScanCancelled)})
	assert.Error(t, err)
}
