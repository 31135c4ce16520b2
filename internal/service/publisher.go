package service

import (
	"context"

	"parking_manager/internal/domain"
)

// EventPublisher receives reservation events after the transaction that
// produced them has committed. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ReservationEvent) error { return nil }
