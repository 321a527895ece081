package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/RetailDesk/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r   messageReader
	log *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{
		r:   kafka.NewReader(cfg),
		log: zap.NewNop(),
	}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r, log: zap.NewNop()}
}

func (c *Consumer) WithLogger(l *zap.Logger) *Consumer {
	if l != nil {
		c.log = l
	}
	return c
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume commits a message only after handler succeeds; a handler error
// stops consumption so the message is redelivered.
func (c *Consumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

// ConsumeShipmentUpdates decodes shipment.updated events. Undecodable
// payloads are logged and committed so they cannot block the partition.
func (c *Consumer) ConsumeShipmentUpdates(ctx context.Context, handler func(ctx context.Context, ev messages.ShipmentUpdated) error) error {
	return c.Consume(ctx, func(key, value []byte) error {
		var ev messages.ShipmentUpdated
		if err := json.Unmarshal(value, &ev); err != nil {
			c.log.Warn("skip malformed shipment event", zap.ByteString("key", key), zap.Error(err))
			return nil
		}
		return handler(ctx, ev)
	})
}
