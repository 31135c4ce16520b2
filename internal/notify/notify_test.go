package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_manager/internal/domain"
)

func sampleEvent() domain.ReservationEvent {
	return domain.ReservationEvent{
		ID:            "evt-1",
		Type:          domain.EventReservationClosed,
		ReservationID: 7,
		LotID:         3,
		SpotID:        11,
		UserID:        5,
		VehicleNo:     "KA01AB1234",
		SpotStatus:    domain.SpotAvailable,
		ParkingCost:   40,
		OccurredAt:    time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

type fakeSQS struct {
	mu       sync.Mutex
	sent     []*sqs.SendMessageInput
	deleted  []string
	inbox    [][]types.Message
	sendErr  error
	received chan struct{}
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	if len(f.inbox) > 0 {
		batch := f.inbox[0]
		f.inbox = f.inbox[1:]
		f.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	f.mu.Unlock()
	if f.received != nil {
		select {
		case f.received <- struct{}{}:
		default:
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSPublisherSendsEncodedEvent(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/queue")

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "https://sqs.local/queue", aws.ToString(client.sent[0].QueueUrl))
	assert.Equal(t, "reservation.closed", aws.ToString(client.sent[0].MessageAttributes["event_type"].StringValue))

	decoded, err := decode([]byte(aws.ToString(client.sent[0].MessageBody)))
	require.NoError(t, err)
	assert.Equal(t, sampleEvent(), decoded)
}

func TestSQSPublisherIgnoresCallerCancellation(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "q")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, pub.Publish(ctx, sampleEvent()))
	assert.Len(t, client.sent, 1)
}

func TestSQSConsumerHandlesAndDeletes(t *testing.T) {
	good, err := encode(sampleEvent())
	require.NoError(t, err)

	client := &fakeSQS{
		inbox: [][]types.Message{{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("r-good"), Body: aws.String(string(good))},
			{MessageId: aws.String("2"), ReceiptHandle: aws.String("r-bad"), Body: aws.String("{not json")},
			{MessageId: aws.String("3"), ReceiptHandle: aws.String("r-retry"), Body: aws.String(string(good))},
		}},
		received: make(chan struct{}, 1),
	}

	var handled []domain.ReservationEvent
	calls := 0
	consumer := NewSQSConsumer(client, "q", func(_ context.Context, event domain.ReservationEvent) error {
		calls++
		if calls == 2 {
			return errors.New("hub unavailable")
		}
		handled = append(handled, event)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	select {
	case <-client.received:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the inbox")
	}
	cancel()
	<-done

	require.Len(t, handled, 1)
	assert.Equal(t, sampleEvent(), handled[0])
	assert.ElementsMatch(t, []string{"r-good", "r-bad"}, client.deleted, "failed messages stay on the queue")
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisherKeysByLot(t *testing.T) {
	writer := &fakeWriter{}
	pub := &KafkaPublisher{writer: writer}

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "3", string(msg.Key))
	assert.Equal(t, "reservation.closed", string(msg.Headers[0].Value))

	decoded, err := decode(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, 40.0, decoded.ParkingCost)
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &fakeWriter{}
	failing := &fakeWriter{err: errors.New("broker down")}
	fanout := NewFanout(&KafkaPublisher{writer: failing}, nil, &KafkaPublisher{writer: ok})

	assert.Equal(t, 2, fanout.Len())
	err := fanout.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.messages, 1, "a failing sink does not block the others")
}
