// Package messaging defines the events the machine announces and the publisher they go through.
package messaging

import (
	"context"
)

const (
	SaleCompletedSubject   = "vending.sale.completed"
	OverflowDrainedSubject = "vending.overflow.drained"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. It is used when no message broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
