package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by lot id, so that events of one lot
// keep their order within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(logger.Errorf),
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	body, err := encode(event)
	if err != nil {
		return fmt.Errorf("kafka: encoding event %s: %w", event.ID, err)
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(event.LotID)),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka: writing event %s: %w", event.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
