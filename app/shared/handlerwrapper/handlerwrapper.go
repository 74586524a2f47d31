// Package handlerwrapper adapts typed request handlers to watermill message handlers.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReplyToMetadataKey lets a requester choose the topic results are sent to.
const ReplyToMetadataKey = "reply_to"

type ctxKey string

// CtxKeyReplyTo holds the requester's reply_to topic in the handler context.
const CtxKeyReplyTo ctxKey = "reply_to"

// Result is one outgoing message produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// WrapTransformingTyped decodes the JSON payload into T, runs handler and
// publishes every returned Result. A payload that cannot be decoded is
// logged and acked so it is not redelivered forever.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler func(context.Context, *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))
		if rt := msg.Metadata.Get(ReplyToMetadataKey); rt != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, rt)
		}

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.WarnContext(ctx, "Dropping message with invalid payload",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			span.SetStatus(codes.Error, "invalid payload")
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		for _, r := range results {
			out, err := json.Marshal(r.Payload)
			if err != nil {
				return fmt.Errorf("%s: failed to marshal result for %s: %w", handlerName, r.Topic, err)
			}

			reply := message.NewMessage(watermill.NewUUID(), out)
			middleware.SetCorrelationID(attr.CorrelationID(ctx), reply)
			for k, v := range r.Metadata {
				reply.Metadata.Set(k, v)
			}

			if err := publisher.Publish(r.Topic, reply); err != nil {
				span.RecordError(err)
				return fmt.Errorf("%s: failed to publish to %s: %w", handlerName, r.Topic, err)
			}
		}
		return nil
	}
}

// ReplyTopic returns the requester's reply_to topic from ctx, or fallback.
func ReplyTopic(ctx context.Context, fallback string) string {
	if rt, ok := ctx.Value(CtxKeyReplyTo).(string); ok && rt != "" {
		return rt
	}
	return fallback
}
