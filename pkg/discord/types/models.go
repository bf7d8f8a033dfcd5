package types

import "github.com/bwmarrin/discordgo"

// ChannelInfo describes a resolved guild channel.
type ChannelInfo struct {
	ID          string
	GuildID     string
	Name        string
	TextCapable bool
}

// Webhook is the handle of a per-channel send proxy. ID and token together
// are sufficient to post, edit, and delete messages through it.
type Webhook struct {
	ID        string
	Token     string
	ChannelID string
	Name      string
}

// MessageEvent is the transport-neutral projection of a gateway message
// lifecycle event. Update and delete events carry only the fields the
// gateway provides (a delete is little more than the ids).
type MessageEvent struct {
	MessageID         string
	ChannelID         string
	GuildID           string
	GuildName         string
	AuthorID          string
	AuthorDisplayName string
	AuthorAvatarURL   string
	AuthorIsBot       bool
	AuthorRoleIDs     []string

	// WebhookID is non-empty when the message was posted through a
	// webhook, which includes every copy this service relays.
	WebhookID string

	Content        string
	AttachmentURLs []string
	Embeds         []*discordgo.MessageEmbed
}

// WebhookSend is an outbound relayed copy.
type WebhookSend struct {
	Content   string
	Username  string
	AvatarURL string
	Embeds    []*discordgo.MessageEmbed
}

// WebhookEdit updates a previously relayed copy in place.
type WebhookEdit struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
}

// MemberEvent is a guild member join or departure.
type MemberEvent struct {
	GuildID  string
	UserID   string
	Username string
	IsBot    bool
	RoleIDs  []string
}

// PresenceUpdate sets the bot's own activity and online status.
type PresenceUpdate struct {
	ActivityType string // Playing, Streaming, Listening, Watching, Custom, Competing
	Text         string
	URL          string // required for Streaming
	Status       string // online, idle, dnd, invisible
}

// CommandRequest is one administrative subcommand invocation, flattened to
// string options the service layer can consume without transport types.
type CommandRequest struct {
	UserID     string
	GuildID    string
	Subcommand string
	Options    map[string]string
}

// CommandResponse is the ephemeral reply shown to the operator.
type CommandResponse struct {
	Content string
}
