package service

import (
	"context"

	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

// RoleStore is the keyed persistence behind the role vault.
type RoleStore interface {
	SaveRoleSnapshot(ctx context.Context, userID string, roleIDs []string) error
	GetRoleSnapshot(ctx context.Context, userID string) ([]string, error)
	DeleteRoleSnapshot(ctx context.Context, userID string) error
}

// RoleVault snapshots a departing member's roles and restores them when the
// member rejoins, so leaving and re-joining does not shed roles. This is an
// independent data path from the relay: no propagation, no mapping.
type RoleVault struct {
	store     RoleStore
	transport types.Transport
	logger    *logrus.Logger
}

func NewRoleVault(store RoleStore, transport types.Transport, logger *logrus.Logger) *RoleVault {
	return &RoleVault{
		store:     store,
		transport: transport,
		logger:    logger,
	}
}

// HandleMemberRemove stores the member's role set. Bots are not tracked. A
// member departing with no roles leaves no snapshot; any earlier one is
// cleared so a later rejoin does not restore roles from a previous stay.
func (v *RoleVault) HandleMemberRemove(ctx context.Context, ev *types.MemberEvent) {
	if ev.IsBot {
		return
	}
	if len(ev.RoleIDs) == 0 {
		if err := v.store.DeleteRoleSnapshot(ctx, ev.UserID); err != nil {
			v.logger.WithError(err).WithField("userId", ev.UserID).Error("Failed to clear role snapshot")
		}
		return
	}
	v.logger.WithField("user", ev.Username).Info("Storing roles for departing member")
	if err := v.store.SaveRoleSnapshot(ctx, ev.UserID, ev.RoleIDs); err != nil {
		v.logger.WithError(err).WithField("userId", ev.UserID).Error("Failed to store role snapshot")
	}
}

// HandleMemberAdd restores any stored roles best-effort and clears the
// snapshot. Individual role failures (role deleted meanwhile, missing
// permission) are logged and skipped.
func (v *RoleVault) HandleMemberAdd(ctx context.Context, ev *types.MemberEvent) {
	roleIDs, err := v.store.GetRoleSnapshot(ctx, ev.UserID)
	if err != nil {
		v.logger.WithError(err).WithField("userId", ev.UserID).Error("Failed to load role snapshot")
		return
	}
	if roleIDs == nil {
		return
	}

	v.logger.WithField("user", ev.Username).Info("Restoring roles for rejoining member")
	for _, roleID := range roleIDs {
		if err := v.transport.AddMemberRole(ctx, ev.GuildID, ev.UserID, roleID); err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"userId": ev.UserID,
				"roleId": roleID,
			}).Debug("Failed to restore role")
		}
	}

	if err := v.store.DeleteRoleSnapshot(ctx, ev.UserID); err != nil {
		v.logger.WithError(err).WithField("userId", ev.UserID).Error("Failed to clear role snapshot")
	}
}
