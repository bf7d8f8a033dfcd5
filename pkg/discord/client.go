package discord

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"chanbridge/pkg/discord/types"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Client wraps a discordgo session behind the types.Transport interface.
// The session owns the gateway websocket; everything here is REST plus
// handler registration.
type Client struct {
	session *discordgo.Session
	logger  *logrus.Logger
}

func NewClient(token string, logger *logrus.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildWebhooks |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	return &Client{
		session: session,
		logger:  logger,
	}, nil
}

// Open connects to the gateway and blocks until the session is ready.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	c.logger.WithField("user", c.session.State.User.Username).Info("Discord session ready")
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) BotUserID() string {
	if c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) BotAvatarURL() string {
	if c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.AvatarURL("256")
}

func (c *Client) Channel(ctx context.Context, channelID string) (*types.ChannelInfo, error) {
	ch, err := c.session.State.Channel(channelID)
	if err != nil {
		ch, err = c.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
		}
	}

	return &types.ChannelInfo{
		ID:          ch.ID,
		GuildID:     ch.GuildID,
		Name:        ch.Name,
		TextCapable: isTextCapable(ch.Type),
	}, nil
}

func isTextCapable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	default:
		return false
	}
}

func (c *Client) ChannelWebhooks(ctx context.Context, channelID string) ([]types.Webhook, error) {
	hooks, err := c.session.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks for channel %s: %w", channelID, err)
	}

	result := make([]types.Webhook, 0, len(hooks))
	for _, wh := range hooks {
		// Only webhooks created by this bot carry an owner we can
		// compare against; incoming webhooks from other apps are
		// skipped by the provisioner anyway.
		if wh.User == nil || wh.User.ID != c.BotUserID() {
			continue
		}
		result = append(result, types.Webhook{
			ID:        wh.ID,
			Token:     wh.Token,
			ChannelID: wh.ChannelID,
			Name:      wh.Name,
		})
	}
	return result, nil
}

func (c *Client) CreateWebhook(ctx context.Context, channelID, name string) (*types.Webhook, error) {
	wh, err := c.session.WebhookCreate(channelID, name, c.avatarDataURI(ctx), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook in channel %s: %w", channelID, err)
	}
	return &types.Webhook{
		ID:        wh.ID,
		Token:     wh.Token,
		ChannelID: wh.ChannelID,
		Name:      wh.Name,
	}, nil
}

// avatarDataURI downloads the bot's own avatar and encodes it for the
// webhook-create endpoint, which takes image data rather than a URL. An
// avatar-less webhook is acceptable, so failures degrade to empty.
func (c *Client) avatarDataURI(ctx context.Context) string {
	url := c.BotAvatarURL()
	if url == "" {
		return ""
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to fetch bot avatar for webhook")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func (c *Client) SendWebhookMessage(ctx context.Context, wh types.Webhook, msg types.WebhookSend) (string, error) {
	sent, err := c.session.WebhookExecute(wh.ID, wh.Token, true, &discordgo.WebhookParams{
		Content:   msg.Content,
		Username:  msg.Username,
		AvatarURL: msg.AvatarURL,
		Embeds:    msg.Embeds,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to execute webhook %s: %w", wh.ID, err)
	}
	if sent == nil {
		return "", fmt.Errorf("webhook %s returned no message", wh.ID)
	}
	return sent.ID, nil
}

func (c *Client) EditWebhookMessage(ctx context.Context, wh types.Webhook, messageID string, edit types.WebhookEdit) error {
	embeds := edit.Embeds
	_, err := c.session.WebhookMessageEdit(wh.ID, wh.Token, messageID, &discordgo.WebhookEdit{
		Content: &edit.Content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit webhook message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) DeleteWebhookMessage(ctx context.Context, wh types.Webhook, messageID string) error {
	if err := c.session.WebhookMessageDelete(wh.ID, wh.Token, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete webhook message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

var activityTypes = map[string]discordgo.ActivityType{
	"Playing":   discordgo.ActivityTypeGame,
	"Streaming": discordgo.ActivityTypeStreaming,
	"Listening": discordgo.ActivityTypeListening,
	"Watching":  discordgo.ActivityTypeWatching,
	"Custom":    discordgo.ActivityTypeCustom,
	"Competing": discordgo.ActivityTypeCompeting,
}

func (c *Client) UpdatePresence(update types.PresenceUpdate) error {
	activityType, ok := activityTypes[update.ActivityType]
	if !ok {
		return fmt.Errorf("unknown activity type: %s", update.ActivityType)
	}

	activity := &discordgo.Activity{
		Name: update.Text,
		Type: activityType,
		URL:  update.URL,
	}
	if activityType == discordgo.ActivityTypeCustom {
		activity.State = update.Text
	}

	data := discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{activity},
		Status:     update.Status,
	}
	if data.Status == "" {
		data.Status = "online"
	}

	if err := c.session.UpdateStatusComplex(data); err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}
