package services

//go:generate mockgen -source=collaborators.go -destination=mocks/collaborators.go -package=mocks

import (
	"context"

	"github.com/diewo77/go-billing/internal/events"
	"github.com/diewo77/go-billing/internal/notify"
)

// Notifier sends confirmation notices once a document reaches "sent".
type Notifier interface {
	Notify(ctx context.Context, n notify.Notice) error
}

// EventPublisher broadcasts lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}
