// Package notify is the fire-and-forget notification collaborator. A failed
// notification is logged and swallowed by callers; it must never roll back or
// fail a state transition.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Event string

const (
	EventOrderCreated       Event = "order.created"
	EventOrderStatusChanged Event = "order.status_changed"
	EventOrderClaimed       Event = "order.claimed"
	EventEmailOTP           Event = "email.otp"
	EventAccountApproval    Event = "account.approval"
)

// Notifier delivers events to interested parties (email, push, webhooks).
type Notifier interface {
	Notify(ctx context.Context, event Event, payload map[string]any) error
}

// LogNotifier writes events to the structured log. It stands in for the real
// email/push channels in development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event, payload map[string]any) error {
	n.logger.Info("notification",
		zap.String("event", string(event)),
		zap.Any("payload", payload))
	return nil
}
