package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should deliver to subscribers in subscription order", func(t *testing.T) {
		bus := NewEventBus()
		var calls []int
		for i := 1; i <= 3; i++ {
			n := i
			bus.Subscribe(UserDeletedType, func(Event) error {
				calls = append(calls, n)
				return nil
			})
		}

		err := bus.Publish(NewEvent(context.Background(), UserDeletedType, UserDeleted{Uid: "u1"}))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, calls)
	})

	t.Run("should continue after failing and panicking subscribers", func(t *testing.T) {
		bus := NewEventBus()
		delivered := false
		bus.Subscribe(UserDeletedType, func(Event) error { return errors.New("boom") })
		bus.Subscribe(UserDeletedType, func(Event) error { panic("bad subscriber") })
		bus.Subscribe(UserDeletedType, func(Event) error {
			delivered = true
			return nil
		})

		err := bus.Publish(NewEvent(context.Background(), UserDeletedType, UserDeleted{}))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2 subscriber(s) failed")
		assert.True(t, delivered)
	})

	t.Run("should not deliver when context is cancelled", func(t *testing.T) {
		bus := NewEventBus()
		delivered := false
		bus.Subscribe(UserDeletedType, func(Event) error {
			delivered = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, UserDeletedType, UserDeleted{}))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, delivered)
	})
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	count := 0
	unsubscribe := bus.Subscribe(SessionResetType, func(Event) error {
		count++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), SessionResetType, SessionReset{})))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), SessionResetType, SessionReset{})))

	assert.Equal(t, 1, count)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []string
	SubscribeTyped(bus, UserDeletedType, func(e EventT[UserDeleted]) error {
		received = append(received, e.Data.Uid)
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), UserDeletedType, UserDeleted{Uid: "abc"})))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), UserDeletedType, "not a payload")))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), UserDeletedType, nil)))

	assert.Equal(t, []string{"abc"}, received)
}
