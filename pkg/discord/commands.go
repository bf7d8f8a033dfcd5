package discord

import (
	"context"

	"chanbridge/pkg/discord/types"

	"github.com/bwmarrin/discordgo"
)

const commandName = "bridge"

var bridgeCommand = &discordgo.ApplicationCommand{
	Name:        commandName,
	Description: "Manage channel bridges",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        "create",
			Description: "Create a new bridge",
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "name", Description: "Name of the bridge", Type: discordgo.ApplicationCommandOptionString, Required: true},
				{Name: "channel1", Description: "First channel to bridge", Type: discordgo.ApplicationCommandOptionString, Required: true},
				{Name: "channel2", Description: "Second channel to bridge", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{
			Name:        "edit",
			Description: "Edit an existing bridge",
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "bridge_id", Description: "ID of the bridge to edit", Type: discordgo.ApplicationCommandOptionString, Required: true},
				{Name: "name", Description: "New name for the bridge", Type: discordgo.ApplicationCommandOptionString},
				{Name: "add_channel", Description: "Add a channel to the bridge", Type: discordgo.ApplicationCommandOptionString},
				{Name: "remove_channel", Description: "Remove a channel from the bridge", Type: discordgo.ApplicationCommandOptionString},
			},
		},
		{
			Name:        "list",
			Description: "List all bridges",
			Type:        discordgo.ApplicationCommandOptionSubCommand,
		},
		{
			Name:        "delete",
			Description: "Delete a bridge",
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "bridge_id", Description: "ID of the bridge to delete", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{
			Name:        "status",
			Description: "Update bot status and activity",
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name: "type", Description: "Activity type", Type: discordgo.ApplicationCommandOptionString, Required: true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Playing", Value: "Playing"},
						{Name: "Streaming", Value: "Streaming"},
						{Name: "Listening", Value: "Listening"},
						{Name: "Watching", Value: "Watching"},
						{Name: "Custom", Value: "Custom"},
						{Name: "Competing", Value: "Competing"},
					},
				},
				{Name: "text", Description: "Status text", Type: discordgo.ApplicationCommandOptionString, Required: true},
				{Name: "url", Description: "URL (required for Streaming activity)", Type: discordgo.ApplicationCommandOptionString},
				{
					Name: "status", Description: "Online status", Type: discordgo.ApplicationCommandOptionString,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Online", Value: "online"},
						{Name: "Idle", Value: "idle"},
						{Name: "Do Not Disturb", Value: "dnd"},
						{Name: "Invisible", Value: "invisible"},
					},
				},
			},
		},
	},
}

// RegisterCommands registers the bridge command and routes invocations to
// the handler. Replies are always ephemeral.
func (c *Client) RegisterCommands(handler types.CommandHandler) error {
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := i.ApplicationCommandData()
		if data.Name != commandName || len(data.Options) == 0 {
			return
		}

		req := types.CommandRequest{
			GuildID:    i.GuildID,
			Subcommand: data.Options[0].Name,
			Options:    make(map[string]string),
		}
		if i.Member != nil && i.Member.User != nil {
			req.UserID = i.Member.User.ID
		} else if i.User != nil {
			req.UserID = i.User.ID
		}
		for _, opt := range data.Options[0].Options {
			req.Options[opt.Name] = opt.StringValue()
		}

		resp := handler.Handle(context.Background(), req)

		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: resp.Content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			c.logger.WithError(err).Error("Failed to respond to command interaction")
		}
	})

	if _, err := c.session.ApplicationCommandCreate(c.session.State.User.ID, "", bridgeCommand); err != nil {
		return err
	}
	c.logger.Info("Registered bridge commands")
	return nil
}
