package notification

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a message to an audience channel. The log notifier is the
// default; a mail or chat integration satisfies the same interface.
type Notifier interface {
	Notify(ctx context.Context, audience, subject, body string) error
}

// Audience channels.
const (
	AudienceAdmins = "admins"
	AudienceUser   = "user"
)

// LogNotifier writes notifications to the structured log instead of an
// external channel.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) Notify(ctx context.Context, audience, subject, body string) error {
	n.log.Info("notification_sent",
		zap.String("audience", audience),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
