package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
)

// SQSAPI is the part of *sqs.Client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSPublisher struct {
	client   SQSAPI
	queueURL string
}

func NewSQSPublisher(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	body, err := encode(event)
	if err != nil {
		return fmt.Errorf("sqs: encoding event %s: %w", event.ID, err)
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(event.Type))},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs: sending event %s: %w", event.ID, err)
	}
	return nil
}

// EventHandler processes one event taken from the queue. A nil error
// deletes the message; otherwise it becomes visible again after the
// visibility timeout.
type EventHandler func(ctx context.Context, event domain.ReservationEvent) error

// SQSConsumer long-polls the event queue so that every instance sees the
// events produced by the others.
type SQSConsumer struct {
	client     SQSAPI
	queueURL   string
	handler    EventHandler
	waitTime   int32
	retryDelay time.Duration
}

func NewSQSConsumer(client SQSAPI, queueURL string, handler EventHandler) *SQSConsumer {
	return &SQSConsumer{
		client:     client,
		queueURL:   queueURL,
		handler:    handler,
		waitTime:   20,
		retryDelay: 5 * time.Second,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	logger.Infof("SQS consumer listening on %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			logger.Info("SQS consumer: context cancelled, stopping")
			return
		default:
		}

		result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     c.waitTime,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warningf("SQS consumer: receiving messages: %v", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, message := range result.Messages {
			c.process(ctx, message)
		}
	}
}

func (c *SQSConsumer) process(ctx context.Context, message types.Message) {
	if message.Body == nil {
		logger.Warning("SQS consumer: empty message body, deleting")
		c.deleteMessage(ctx, message.ReceiptHandle)
		return
	}

	event, err := decode([]byte(*message.Body))
	if err != nil {
		// a body that cannot be decoded never will be
		logger.Warningf("SQS consumer: dropping undecodable message %s: %v", aws.ToString(message.MessageId), err)
		c.deleteMessage(ctx, message.ReceiptHandle)
		return
	}

	if err := c.handler(ctx, event); err != nil {
		logger.Warningf("SQS consumer: handling message %s: %v", aws.ToString(message.MessageId), err)
		return
	}
	c.deleteMessage(ctx, message.ReceiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		logger.Warning("SQS consumer: missing receipt handle, cannot delete message")
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		logger.Warningf("SQS consumer: deleting message: %v", err)
	}
}
