package service

import (
	"context"
	"fmt"
	"sync"

	"chanbridge/internal/constants"
	"chanbridge/internal/models"
	"chanbridge/internal/validation"
	"chanbridge/pkg/discord/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BridgeStore is the durable side of the registry: one record per bridge.
type BridgeStore interface {
	Save(bridge *models.BridgeConfig) error
	Delete(id string) error
	LoadAll() ([]models.BridgeConfig, error)
}

// ProxyProvisioner reconciles send proxies for the registry's channel set.
type ProxyProvisioner interface {
	Ensure(ctx context.Context, channelID string, bridge *models.BridgeConfig) (types.Webhook, error)
	Converge(ctx context.Context, bridges []models.BridgeConfig)
	Lookup(channelID string) (types.Webhook, bool)
}

// EditPatch carries the optional fields of an edit operation. Empty fields
// are left untouched.
type EditPatch struct {
	Name          string
	AddChannel    string
	RemoveChannel string
}

// Registry is the source of truth for which channels participate in which
// bridge. The in-memory list mirrors the durable store; on every mutation
// the durable record is written first, so a crash mid-update leaves the
// store as ground truth. Mutations trigger proxy convergence before they
// are considered complete.
type Registry struct {
	store       BridgeStore
	transport   types.Transport
	provisioner ProxyProvisioner
	logger      *logrus.Logger

	mu      sync.RWMutex
	bridges []models.BridgeConfig
}

func NewRegistry(store BridgeStore, transport types.Transport, provisioner ProxyProvisioner, logger *logrus.Logger) *Registry {
	return &Registry{
		store:       store,
		transport:   transport,
		provisioner: provisioner,
		logger:      logger,
	}
}

// Load reads every durable bridge record and provisions proxies for the
// full working set.
func (r *Registry) Load(ctx context.Context) error {
	bridges, err := r.store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load bridges: %w", err)
	}
	for i := range bridges {
		if err := bridges[i].Validate(); err != nil {
			return fmt.Errorf("invalid bridge record %s: %w", bridges[i].ID, err)
		}
	}

	r.mu.Lock()
	r.bridges = bridges
	r.mu.Unlock()

	r.logger.WithField("count", len(bridges)).Info("Loaded bridges")
	r.provisioner.Converge(ctx, r.List())
	return nil
}

// validateChannel resolves a channel and requires it to be text-capable.
func (r *Registry) validateChannel(ctx context.Context, channelID string) error {
	ch, err := r.transport.Channel(ctx, channelID)
	if err != nil {
		return models.InvalidChannelError{ChannelID: channelID, Reason: "channel does not resolve"}
	}
	if !ch.TextCapable {
		return models.InvalidChannelError{ChannelID: channelID, Reason: "not a text channel"}
	}
	return nil
}

// Create validates both channels, persists a new bridge, and provisions its
// proxies before returning.
func (r *Registry) Create(ctx context.Context, name, channel1, channel2 string) (*models.BridgeConfig, error) {
	if err := validation.ValidateBridgeName(name); err != nil {
		return nil, models.ConfigError{Message: err.Error()}
	}
	if channel1 == channel2 {
		return nil, models.ConfigError{Message: "a bridge needs two distinct channels"}
	}
	for _, channelID := range []string{channel1, channel2} {
		if err := validation.ValidateChannelID(channelID); err != nil {
			return nil, models.ConfigError{Message: err.Error()}
		}
		if err := r.validateChannel(ctx, channelID); err != nil {
			return nil, err
		}
	}

	bridge := models.BridgeConfig{
		ID:             uuid.NewString(),
		Name:           name,
		NameFormat:     constants.DefaultNameFormat,
		Channels:       []string{channel1, channel2},
		BlacklistRoles: []string{},
	}

	if err := r.store.Save(&bridge); err != nil {
		return nil, fmt.Errorf("failed to persist bridge: %w", err)
	}

	r.mu.Lock()
	r.bridges = append(r.bridges, bridge)
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"bridgeId": bridge.ID,
		"name":     bridge.Name,
	}).Info("Bridge created")

	r.provisioner.Converge(ctx, []models.BridgeConfig{bridge})
	result := bridge.Clone()
	return &result, nil
}

// Edit applies an optional rename, channel addition, and channel removal to
// an existing bridge. Adding an already-present channel is a no-op; a
// removal that would leave fewer than two channels fails and leaves the
// bridge unmodified.
func (r *Registry) Edit(ctx context.Context, id string, patch EditPatch) (*models.BridgeConfig, error) {
	r.mu.RLock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.RUnlock()
		return nil, models.ErrBridgeNotFound
	}
	updated := r.bridges[idx].Clone()
	r.mu.RUnlock()

	if patch.Name != "" {
		if err := validation.ValidateBridgeName(patch.Name); err != nil {
			return nil, models.ConfigError{Message: err.Error()}
		}
		updated.Name = patch.Name
	}

	if patch.AddChannel != "" && !updated.HasChannel(patch.AddChannel) {
		if err := validation.ValidateChannelID(patch.AddChannel); err != nil {
			return nil, models.ConfigError{Message: err.Error()}
		}
		if err := r.validateChannel(ctx, patch.AddChannel); err != nil {
			return nil, err
		}
		updated.Channels = append(updated.Channels, patch.AddChannel)
	}

	if patch.RemoveChannel != "" && updated.HasChannel(patch.RemoveChannel) {
		if len(updated.Channels)-1 < constants.MinBridgeChannels {
			return nil, models.ErrTooFewChannels
		}
		kept := make([]string, 0, len(updated.Channels)-1)
		for _, ch := range updated.Channels {
			if ch != patch.RemoveChannel {
				kept = append(kept, ch)
			}
		}
		updated.Channels = kept
	}

	if err := r.store.Save(&updated); err != nil {
		return nil, fmt.Errorf("failed to persist bridge: %w", err)
	}

	r.mu.Lock()
	// Re-resolve the index; the list may have shifted while the store
	// write was in flight.
	if idx = r.indexOf(id); idx < 0 {
		r.mu.Unlock()
		return nil, models.ErrBridgeNotFound
	}
	r.bridges[idx] = updated
	r.mu.Unlock()

	r.logger.WithField("bridgeId", id).Info("Bridge updated")

	r.provisioner.Converge(ctx, []models.BridgeConfig{updated})
	result := updated.Clone()
	return &result, nil
}

// Delete removes the durable record and the in-memory copy, then
// reconciles proxies for the remaining working set.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.RLock()
	idx := r.indexOf(id)
	r.mu.RUnlock()
	if idx < 0 {
		return models.ErrBridgeNotFound
	}

	if err := r.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete bridge record: %w", err)
	}

	r.mu.Lock()
	if idx = r.indexOf(id); idx >= 0 {
		r.bridges = append(r.bridges[:idx], r.bridges[idx+1:]...)
	}
	r.mu.Unlock()

	r.logger.WithField("bridgeId", id).Info("Bridge deleted")

	r.provisioner.Converge(ctx, r.List())
	return nil
}

// List returns a read-consistent snapshot of all bridges.
func (r *Registry) List() []models.BridgeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]models.BridgeConfig, 0, len(r.bridges))
	for i := range r.bridges {
		snapshot = append(snapshot, r.bridges[i].Clone())
	}
	return snapshot
}

// BridgesFor returns every bridge the channel participates in. A channel
// may belong to several bridges; each relays independently.
func (r *Registry) BridgesFor(channelID string) []models.BridgeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owning []models.BridgeConfig
	for i := range r.bridges {
		if r.bridges[i].HasChannel(channelID) {
			owning = append(owning, r.bridges[i].Clone())
		}
	}
	return owning
}

// indexOf must be called with the registry lock held.
func (r *Registry) indexOf(id string) int {
	for i := range r.bridges {
		if r.bridges[i].ID == id {
			return i
		}
	}
	return -1
}
