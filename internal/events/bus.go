// Package events carries session and UI notifications over watermill so
// hosts can react to state changes without polling the SDK.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/oktotech/okto-go/internal/auth"
)

// Topics.
const (
	TopicSession = "okto.session"
	TopicUI      = "okto.ui"
)

// UIKind names a request to the host UI layer.
type UIKind string

const (
	ShowOnboarding UIKind = "show_onboarding"
	ShowWidget     UIKind = "show_widget"
	CloseModal     UIKind = "close_modal"
)

// UIEvent asks the host to open or close an embedded page. The core never
// renders anything itself.
type UIEvent struct {
	Kind UIKind    `json:"kind"`
	URL  string    `json:"url,omitempty"`
	Data any       `json:"data,omitempty"` // injected into the iframe on load
	At   time.Time `json:"at"`
}

// Bus publishes and subscribes to SDK events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewInMemoryBus returns a bus local to this process.
func NewInMemoryBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return &Bus{publisher: ch, subscriber: ch, logger: logger}
}

// NewRedisBus returns a bus over Redis streams, shared by every process that
// uses the same Redis. consumerGroup should be unique per listener.
func NewRedisBus(client redis.UniversalClient, consumerGroup string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	wlog := watermill.NewSlogLogger(logger)

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}
	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, wlog)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create redis subscriber: %w", err)
	}
	return &Bus{publisher: publisher, subscriber: subscriber, logger: logger}, nil
}

// NewBus wraps an arbitrary watermill publisher and subscriber.
func NewBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{publisher: pub, subscriber: sub, logger: logger}
}

// PublishSession publishes a session transition.
func (b *Bus) PublishSession(ev auth.SessionEvent) error {
	return b.publish(TopicSession, string(ev.Kind), ev)
}

// PublishUI publishes a UI request.
func (b *Bus) PublishUI(ev UIEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return b.publish(TopicUI, string(ev.Kind), ev)
}

func (b *Bus) publish(topic, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", kind)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// ForwardSession publishes every transition of s until the returned
// function is called.
func (b *Bus) ForwardSession(s *auth.Session) func() {
	return s.Subscribe(func(ev auth.SessionEvent) {
		if err := b.PublishSession(ev); err != nil {
			b.logger.Warn("failed to publish session event", "kind", ev.Kind, "error", err)
		}
	})
}

// SubscribeSession streams session events until ctx ends.
func (b *Bus) SubscribeSession(ctx context.Context) (<-chan auth.SessionEvent, error) {
	return subscribe[auth.SessionEvent](ctx, b, TopicSession)
}

// SubscribeUI streams UI events until ctx ends.
func (b *Bus) SubscribeUI(ctx context.Context) (<-chan UIEvent, error) {
	return subscribe[UIEvent](ctx, b, TopicUI)
}

func subscribe[T any](ctx context.Context, b *Bus, topic string) (<-chan T, error) {
	msgs, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	out := make(chan T)
	go func() {
		defer close(out)
		for msg := range msgs {
			var v T
			if err := json.Unmarshal(msg.Payload, &v); err != nil {
				b.logger.Warn("dropping malformed event", "topic", topic, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	perr := b.publisher.Close()
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if serr := b.subscriber.Close(); serr != nil && perr == nil {
			perr = serr
		}
	}
	return perr
}
