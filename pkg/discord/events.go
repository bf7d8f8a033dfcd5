package discord

import (
	"context"

	"chanbridge/pkg/discord/types"

	"github.com/bwmarrin/discordgo"
)

// MessageHandler consumes one message lifecycle event. discordgo invokes
// each gateway handler on its own goroutine, so handlers for different
// messages run concurrently.
type MessageHandler func(ctx context.Context, msg *types.MessageEvent)

// MemberHandler consumes a guild member join or departure.
type MemberHandler func(ctx context.Context, ev *types.MemberEvent)

func (c *Client) OnMessageCreate(h MessageHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		h(context.Background(), c.messageEvent(m.Message))
	})
}

func (c *Client) OnMessageUpdate(h MessageHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		if partialUpdate(m.Message) {
			return
		}
		h(context.Background(), c.messageEvent(m.Message))
	})
}

// partialUpdate reports whether an update payload is one of the author-less
// MESSAGE_UPDATE dispatches Discord sends when it unfurls a link into an
// embed. Those carry no content, so treating them as edits would blank the
// relayed copies.
func partialUpdate(m *discordgo.Message) bool {
	return m.Author == nil
}

func (c *Client) OnMessageDelete(h MessageHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageDelete) {
		h(context.Background(), c.messageEvent(m.Message))
	})
}

func (c *Client) OnMemberAdd(h MemberHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		h(context.Background(), memberEvent(m.Member))
	})
}

func (c *Client) OnMemberRemove(h MemberHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
		h(context.Background(), memberEvent(m.Member))
	})
}

// messageEvent flattens a gateway message into the transport-neutral form.
// Delete events (and some updates) arrive without author or member data, so
// every field access is guarded.
func (c *Client) messageEvent(m *discordgo.Message) *types.MessageEvent {
	ev := &types.MessageEvent{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		WebhookID: m.WebhookID,
		Content:   m.Content,
		Embeds:    m.Embeds,
	}

	if guild, err := c.session.State.Guild(m.GuildID); err == nil {
		ev.GuildName = guild.Name
	}

	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.AuthorIsBot = m.Author.Bot
		ev.AuthorAvatarURL = m.Author.AvatarURL("")
		ev.AuthorDisplayName = m.Author.Username
		if m.Author.GlobalName != "" {
			ev.AuthorDisplayName = m.Author.GlobalName
		}
	}
	if m.Member != nil {
		ev.AuthorRoleIDs = m.Member.Roles
		if m.Member.Nick != "" {
			ev.AuthorDisplayName = m.Member.Nick
		}
	}

	for _, att := range m.Attachments {
		ev.AttachmentURLs = append(ev.AttachmentURLs, att.URL)
	}

	return ev
}

func memberEvent(m *discordgo.Member) *types.MemberEvent {
	ev := &types.MemberEvent{
		GuildID: m.GuildID,
		RoleIDs: m.Roles,
	}
	if m.User != nil {
		ev.UserID = m.User.ID
		ev.Username = m.User.Username
		ev.IsBot = m.User.Bot
	}
	return ev
}
