package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/goccy/go-json"
)

const topicPrefix = "updates."

// Broker routes events through an in-process watermill pub/sub, one topic per
// user. Events published while a user has no open stream are dropped.
type Broker struct {
	pubsub *gochannel.GoChannel
	logger logging.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewBroker(logger logging.Logger) *Broker {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	return &Broker{pubsub: ps, logger: logger.With("module", "events")}
}

func topic(userID string) string {
	return topicPrefix + userID
}

// Notify encodes ev and publishes it on the user's topic. Failures are logged.
func (b *Broker) Notify(ctx context.Context, userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error(ctx, "encode event", "err", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic(userID), msg); err != nil {
		b.logger.Warn(ctx, "publish event", "user_id", userID, "err", err)
	}
}

// Subscribe opens a stream of raw JSON events for userID. The channel closes
// when ctx is done or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context, userID string) (<-chan []byte, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic(userID))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range msgs {
			payload := msg.Payload
			msg.Ack()
			select {
			case out <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close ends every open subscription. It is safe to call more than once.
func (b *Broker) Close() error {
	b.closeOnce.Do(func() { b.closeErr = b.pubsub.Close() })
	return b.closeErr
}
