package app

import (
	"context"

	"github.com/kataras/golog"

	"docchat/internal/model"
)

// EventPublisher hands audit events to the queue. Publishing is best-effort:
// a broker outage must never fail the request that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

func publishAudit(ctx context.Context, publisher EventPublisher, event model.AuditEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		golog.Warnf("publish audit event %s failed: %v", event.Action, err)
	}
}
