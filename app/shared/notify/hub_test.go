package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubDeliversInSubscriptionOrder(t *testing.T) {
	hub := NewHub(nil)
	var got []string

	hub.Subscribe(CheckInProcessed, func(ctx context.Context, e Event) error {
		got = append(got, "first")
		return nil
	})
	hub.Subscribe(Wildcard, func(ctx context.Context, e Event) error {
		got = append(got, "wildcard")
		return nil
	})
	hub.Subscribe(QRCodeExpired, func(ctx context.Context, e Event) error {
		got = append(got, "other")
		return nil
	})
	hub.Subscribe(CheckInProcessed, func(ctx context.Context, e Event) error {
		got = append(got, "second")
		return nil
	})

	n := hub.Publish(context.Background(), Event{Name: CheckInProcessed})
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"first", "wildcard", "second"}, got)
}

func TestHubIsolatesFailingHandlers(t *testing.T) {
	tests := []struct {
		name    string
		failing Handler
	}{
		{
			name: "handler returns error",
			failing: func(ctx context.Context, e Event) error {
				return errors.New("observer down")
			},
		},
		{
			name: "handler panics",
			failing: func(ctx context.Context, e Event) error {
				panic("boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(nil)
			reached := false
			hub.Subscribe(DisputeRaised, tt.failing)
			hub.Subscribe(DisputeRaised, func(ctx context.Context, e Event) error {
				reached = true
				return nil
			})

			n := hub.Publish(context.Background(), Event{Name: DisputeRaised})
			assert.True(t, reached)
			assert.Equal(t, 1, n)
		})
	}
}

func TestHubUnsubscribe(t *testing.T) {
	// Any name routes; the hub does not restrict itself to the built-in events.
	const custom = "custom-event"
	hub := NewHub(nil)
	calls := 0
	id := hub.Subscribe(custom, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	hub.Publish(context.Background(), Event{Name: custom})
	assert.True(t, hub.Unsubscribe(id))
	assert.False(t, hub.Unsubscribe(id))
	assert.False(t, hub.Unsubscribe("sub-unknown"))
	hub.Publish(context.Background(), Event{Name: custom})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.Len())
}

func TestHubHandlerMaySubscribeDuringPublish(t *testing.T) {
	hub := NewHub(nil)
	hub.Subscribe(SlipCompleted, func(ctx context.Context, e Event) error {
		hub.Subscribe(SlipCompleted, func(ctx context.Context, e Event) error { return nil })
		return nil
	})

	assert.Equal(t, 1, hub.Publish(context.Background(), Event{Name: SlipCompleted}))
	assert.Equal(t, 2, hub.Len())
}
