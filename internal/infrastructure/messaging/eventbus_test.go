package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	config := DefaultInMemoryEventBusConfig()
	config.AsyncMode = false
	return NewInMemoryEventBus(config)
}

func executedEvent(adminID string) shared.QueryExecutedEvent {
	return shared.NewQueryExecutedEvent(
		adminID, "who submitted homework?", "HOMEWORK_STATUS",
		[]string{"scope: grade in {8}"}, 2, 2)
}

func TestEventBus_PublishToTypedSubscriber(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventQueryExecuted, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(executedEvent("amit")))
	require.NoError(t, bus.Publish(shared.NewQueryRejectedEvent("mallory", "show all", "unknown admin")))

	// Only the subscribed type is delivered.
	require.Len(t, received, 1)
	assert.Equal(t, shared.EventQueryExecuted, received[0].EventType())
	assert.Equal(t, "amit", received[0].AggregateID())
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var types []shared.EventType
	err := bus.SubscribeAll(func(e shared.Event) error {
		types = append(types, e.EventType())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(executedEvent("amit")))
	require.NoError(t, bus.Publish(shared.NewRosterLoadedEvent("file:roster.csv", 40, 2, false)))
	require.NoError(t, bus.Publish(shared.NewRefinementFallbackEvent("amit", "provider timeout")))

	assert.Equal(t, []shared.EventType{
		shared.EventQueryExecuted,
		shared.EventRosterLoaded,
		shared.EventRefinementFallback,
	}, types)
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		return errors.New("sink down")
	}))

	assert.NoError(t, bus.Publish(executedEvent("amit")))
}

func TestEventBus_NilChecks(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventQueryExecuted, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(executedEvent("amit")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(e shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close())
}

func TestEventBus_AsyncDeliveryCompletesOnClose(t *testing.T) {
	config := DefaultInMemoryEventBusConfig()
	config.AsyncMode = true
	config.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(config)

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(executedEvent("amit")))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 10
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Close())
}

func TestEventBus_Metrics(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(executedEvent("amit")))
	require.NoError(t, bus.Publish(executedEvent("riya")))

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalPublished)
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.Equal(t, 1.0, snapshot.HandlerSuccessRate)
}
