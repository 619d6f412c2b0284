package notify

import (
	"context"

	"alert-engine/internal/model"
)

// Sender delivers one alert through one channel. Implementations are
// collaborator-provided transports (SMTP, webhook client, SMS gateway); the
// core never constructs transport payloads itself.
type Sender interface {
	Send(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance) error {
	return f(ctx, channel, inst)
}

// SenderRegistry maps channel types to their senders.
type SenderRegistry map[model.ChannelType]Sender

// UseCase is the notification delivery service: it routes an alert instance
// to its eligible channels, dispatches concurrently, records outcomes and
// drives failure escalation.
type UseCase interface {
	SendAlertNotifications(ctx context.Context, settings model.NotificationSettings, inst *model.AlertInstance) ([]model.NotificationLogEntry, error)
}
