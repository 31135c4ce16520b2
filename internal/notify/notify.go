// Package notify delivers reservation events to the outside world: the
// admin WebSocket hub, an SQS queue and a Kafka topic.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"parking_manager/internal/domain"
)

const publishTimeout = 5 * time.Second

// Publisher is implemented by every event sink in this package.
type Publisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

// Fanout forwards each event to all of its publishers and joins their
// errors. One failing sink does not stop the others.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, event domain.ReservationEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Len() int {
	return len(f.publishers)
}

func encode(event domain.ReservationEvent) ([]byte, error) {
	return json.Marshal(event)
}

func decode(body []byte) (domain.ReservationEvent, error) {
	var event domain.ReservationEvent
	err := json.Unmarshal(body, &event)
	return event, err
}

// detach keeps the caller's values but not its cancellation, so an event
// is still delivered when the HTTP request that caused it has finished.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}
