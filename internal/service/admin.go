package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chanbridge/internal/models"
	"chanbridge/internal/tracing"
	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

// BridgeAdmin is the registry surface exposed to the administrative
// command handler.
type BridgeAdmin interface {
	Create(ctx context.Context, name, channel1, channel2 string) (*models.BridgeConfig, error)
	Edit(ctx context.Context, id string, patch EditPatch) (*models.BridgeConfig, error)
	Delete(ctx context.Context, id string) error
	List() []models.BridgeConfig
}

// Admin handles the operator-facing bridge command. It owns authorization
// (one operator user) and reply formatting; everything else is delegated to
// the registry and the transport. Replies are rendered for Discord and
// shown only to the operator.
type Admin struct {
	registry  BridgeAdmin
	transport types.Transport
	ownerID   string
	logger    *logrus.Logger
}

func NewAdmin(registry BridgeAdmin, transport types.Transport, ownerID string, logger *logrus.Logger) *Admin {
	return &Admin{
		registry:  registry,
		transport: transport,
		ownerID:   ownerID,
		logger:    logger,
	}
}

func (a *Admin) Handle(ctx context.Context, req types.CommandRequest) types.CommandResponse {
	if req.UserID != a.ownerID {
		return types.CommandResponse{Content: "❌ You are not allowed to use this command!"}
	}

	ctx, span := tracing.StartSpan(ctx, "admin."+req.Subcommand)
	defer span.End()

	switch req.Subcommand {
	case "create":
		return a.handleCreate(ctx, req)
	case "edit":
		return a.handleEdit(ctx, req)
	case "list":
		return a.handleList()
	case "delete":
		return a.handleDelete(ctx, req)
	case "status":
		return a.handleStatus(req)
	default:
		return types.CommandResponse{Content: fmt.Sprintf("❌ Unknown subcommand: %s", req.Subcommand)}
	}
}

func (a *Admin) handleCreate(ctx context.Context, req types.CommandRequest) types.CommandResponse {
	bridge, err := a.registry.Create(ctx, req.Options["name"], req.Options["channel1"], req.Options["channel2"])
	if err != nil {
		a.logger.WithError(err).Warn("Failed to create bridge")
		return failure("Failed to create bridge", err)
	}
	return types.CommandResponse{
		Content: fmt.Sprintf("✅ Bridge \"%s\" created successfully!\nID: `%s`", bridge.Name, bridge.ID),
	}
}

func (a *Admin) handleEdit(ctx context.Context, req types.CommandRequest) types.CommandResponse {
	patch := EditPatch{
		Name:          req.Options["name"],
		AddChannel:    req.Options["add_channel"],
		RemoveChannel: req.Options["remove_channel"],
	}
	bridge, err := a.registry.Edit(ctx, req.Options["bridge_id"], patch)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to edit bridge")
		return failure("Failed to edit bridge", err)
	}
	return types.CommandResponse{
		Content: fmt.Sprintf("✅ Bridge \"%s\" updated successfully!", bridge.Name),
	}
}

func (a *Admin) handleList() types.CommandResponse {
	bridges := a.registry.List()
	if len(bridges) == 0 {
		return types.CommandResponse{Content: "No bridges found!"}
	}

	var sb strings.Builder
	sb.WriteString("**Bridge List**\n")
	for _, bridge := range bridges {
		mentions := make([]string, 0, len(bridge.Channels))
		for _, ch := range bridge.Channels {
			mentions = append(mentions, "<#"+ch+">")
		}
		fmt.Fprintf(&sb, "\n**%s** (ID: `%s`)\nChannels: %s\n", bridge.Name, bridge.ID, strings.Join(mentions, ", "))
	}
	return types.CommandResponse{Content: sb.String()}
}

func (a *Admin) handleDelete(ctx context.Context, req types.CommandRequest) types.CommandResponse {
	if err := a.registry.Delete(ctx, req.Options["bridge_id"]); err != nil {
		a.logger.WithError(err).Warn("Failed to delete bridge")
		return failure("Failed to delete bridge", err)
	}
	return types.CommandResponse{Content: "✅ Bridge deleted successfully!"}
}

func (a *Admin) handleStatus(req types.CommandRequest) types.CommandResponse {
	update := types.PresenceUpdate{
		ActivityType: req.Options["type"],
		Text:         req.Options["text"],
		URL:          req.Options["url"],
		Status:       req.Options["status"],
	}
	if update.ActivityType == "Streaming" && update.URL == "" {
		return types.CommandResponse{Content: "❌ URL is required for Streaming activity!"}
	}

	if err := a.transport.UpdatePresence(update); err != nil {
		a.logger.WithError(err).Warn("Failed to update presence")
		return failure("Failed to update status", err)
	}

	content := fmt.Sprintf("✅ Updated bot status:\nType: %s\nText: %s", update.ActivityType, update.Text)
	if update.URL != "" {
		content += "\nURL: " + update.URL
	}
	if update.Status != "" {
		content += "\nStatus: " + update.Status
	}
	return types.CommandResponse{Content: content}
}

// failure renders an error for the operator. Known errors carry their own
// message; anything else gets a generic acknowledgment so internals are not
// leaked into chat.
func failure(action string, err error) types.CommandResponse {
	var configErr models.ConfigError
	var invalidChannel models.InvalidChannelError
	switch {
	case errors.Is(err, models.ErrBridgeNotFound):
		return types.CommandResponse{Content: "❌ Bridge not found!"}
	case errors.Is(err, models.ErrTooFewChannels):
		return types.CommandResponse{Content: "❌ Bridge must have at least 2 channels!"}
	case errors.As(err, &invalidChannel):
		return types.CommandResponse{Content: fmt.Sprintf("❌ %s", invalidChannel.Error())}
	case errors.As(err, &configErr):
		return types.CommandResponse{Content: fmt.Sprintf("❌ %s", configErr.Message)}
	default:
		return types.CommandResponse{Content: fmt.Sprintf("❌ %s. Check logs for details.", action)}
	}
}
