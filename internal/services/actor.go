package services

import (
	"context"
	"time"

	"github.com/diewo77/go-billing/internal/models"
)

type actorKey struct{}

// WithActor stores the already-authorized acting user in ctx.
func WithActor(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

// ActorFromContext returns the acting user placed by WithActor.
func ActorFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(actorKey{}).(models.User)
	return u, ok && u.ID != ""
}

// Option configures a service.
type Option func(*options)

type options struct {
	now      func() time.Time
	notifier Notifier
	events   EventPublisher
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithNotifier sets the confirmation notifier.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithEvents sets the lifecycle event publisher.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      func() time.Time { return time.Now().UTC() },
		notifier: nopNotifier{},
		events:   nopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
