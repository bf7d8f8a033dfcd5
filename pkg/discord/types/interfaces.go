package types

import "context"

// Transport is the Discord surface the services consume. Every call maps to
// one REST operation and may fail; callers decide what a failure isolates.
type Transport interface {
	BotUserID() string
	BotAvatarURL() string

	Channel(ctx context.Context, channelID string) (*ChannelInfo, error)

	ChannelWebhooks(ctx context.Context, channelID string) ([]Webhook, error)
	CreateWebhook(ctx context.Context, channelID, name string) (*Webhook, error)

	SendWebhookMessage(ctx context.Context, wh Webhook, msg WebhookSend) (string, error)
	EditWebhookMessage(ctx context.Context, wh Webhook, messageID string, edit WebhookEdit) error
	DeleteWebhookMessage(ctx context.Context, wh Webhook, messageID string) error

	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error

	UpdatePresence(update PresenceUpdate) error
}

// CommandHandler consumes administrative subcommand invocations. The
// transport owns registration and interaction plumbing; the handler owns
// authorization and the reply text.
type CommandHandler interface {
	Handle(ctx context.Context, req CommandRequest) CommandResponse
}
