package services

import (
	"context"

	"github.com/diewo77/go-billing/internal/events"
	"github.com/diewo77/go-billing/internal/notify"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notify.Notice) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) {}
