package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one fetched message. Returning an error leaves
// the offset uncommitted so the message is redelivered after a restart.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// messageReader is the slice of kafka.Reader the consume loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
}

// NewConsumer subscribes one consumer group to one or more topics.
// All replicas sharing groupID split the partitions between them.
func NewConsumer(brokers, topics []string, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume pulls messages sequentially, one at a time. Each message is
// processed to completion before the next fetch; the offset is committed
// only after the handler returns nil. Cancelling ctx stops the loop
// between messages: a message already fetched is handled and committed
// under a detached context, never aborted mid-flight.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Error fetching message: %v", err)
			continue
		}

		procCtx := context.WithoutCancel(ctx)
		if err := handler(procCtx, msg); err != nil {
			// Offset stays uncommitted: the message is redelivered.
			log.Printf("Error handling message: %v", err)
			continue
		}

		if err := c.reader.CommitMessages(procCtx, msg); err != nil {
			log.Printf("Error committing offset: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
