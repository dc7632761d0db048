package services

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/log"
)

// ChangePublisher announces cycle changes to downstream consumers.
// *amqp.Client implements it.
type ChangePublisher interface {
	PublishCycleChanged(ctx context.Context, msg *amqp.CycleChangedMessage) error
}

// notify publishes msg when a publisher is configured. Failures are logged
// and swallowed: the change is already committed locally.
func notify(ctx context.Context, pub ChangePublisher, logger *log.Logger, msg *amqp.CycleChangedMessage) {
	if pub == nil {
		logger.DebugContext(ctx, "No change publisher configured, skipping notification",
			log.FieldCycleID, msg.CycleID)
		return
	}
	if err := pub.PublishCycleChanged(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish cycle change",
			log.NewFields().
				WithError(err).
				WithOperation(log.OpPublish).
				WithUser(msg.UserID).
				WithCycle(msg.CycleID, msg.MonthKey).
				ToSlice()...)
	}
}

func defaultLogger(logger *log.Logger, component string) *log.Logger {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return logger.WithComponent(component)
}
