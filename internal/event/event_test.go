package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers to every subscriber of the type", func(t *testing.T) {
		bus := NewMemoryBus()

		var got []Event
		bus.Subscribe(ItemPurchased, func(_ context.Context, e Event) error {
			got = append(got, e)
			return nil
		})
		bus.Subscribe(ItemPurchased, func(_ context.Context, e Event) error {
			got = append(got, e)
			return nil
		})

		err := bus.Publish(ctx, New(ItemPurchased, map[string]any{"quantity": 3}))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "1.0", got[0].Version)
		assert.Equal(t, 3, got[0].Payload["quantity"])
	})

	t.Run("Unsubscribed types are dropped silently", func(t *testing.T) {
		bus := NewMemoryBus()
		assert.NoError(t, bus.Publish(ctx, New(ShopRemoved, nil)))
	})

	t.Run("Handler failures are aggregated", func(t *testing.T) {
		bus := NewMemoryBus()

		delivered := false
		bus.Subscribe(ItemSoldOut, func(context.Context, Event) error {
			return errors.New("boom")
		})
		bus.Subscribe(ItemSoldOut, func(context.Context, Event) error {
			delivered = true
			return nil
		})

		err := bus.Publish(ctx, New(ItemSoldOut, nil))
		assert.Error(t, err)
		assert.True(t, delivered, "later handlers still run")
	})
}
