package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// TopicFor maps a hub event name to its bus topic.
func TopicFor(eventName string) string {
	return "tourney." + eventName + ".v1"
}

// Relay forwards hub events onto the bus.
type Relay struct {
	publisher message.Publisher
}

func NewRelay(publisher message.Publisher) *Relay {
	return &Relay{publisher: publisher}
}

// Attach subscribes the relay to every hub event and returns the subscription id.
func (r *Relay) Attach(hub *notify.Hub) string {
	return hub.Subscribe(notify.Wildcard, r.Handle)
}

// Handle is a notify.Handler publishing e as JSON.
func (r *Relay) Handle(ctx context.Context, e notify.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.Name, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	middleware.SetCorrelationID(attr.CorrelationID(ctx), msg)
	msg.Metadata.Set("event", e.Name)

	return r.publisher.Publish(TopicFor(e.Name), msg)
}
