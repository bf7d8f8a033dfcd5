package service

import (
	"context"
	"errors"
	"sync"

	"chanbridge/internal/models"
	"chanbridge/internal/privacy"
	"chanbridge/internal/retry"
	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

// errNoProxy marks a destination whose send proxy was never provisioned.
var errNoProxy = errors.New("no send proxy provisioned")

// Provisioner obtains and caches the per-channel send proxies (webhooks).
// A webhook already owned by the bot is reused, so restarts do not pile up
// duplicates; webhooks are never destroyed here. The cache lives for the
// process lifetime and is safe for concurrent use by in-flight handlers.
type Provisioner struct {
	transport types.Transport
	backoff   retry.Policy
	logger    *logrus.Logger

	mu    sync.RWMutex
	cache map[string]types.Webhook // channel id -> webhook
}

func NewProvisioner(transport types.Transport, logger *logrus.Logger) *Provisioner {
	return &Provisioner{
		transport: transport,
		backoff:   retry.DefaultPolicy(),
		logger:    logger,
		cache:     make(map[string]types.Webhook),
	}
}

// Ensure returns the send proxy for a channel, creating one named after the
// bridge if the channel has none owned by the bot. Idempotent: repeated
// calls never create duplicates.
func (p *Provisioner) Ensure(ctx context.Context, channelID string, bridge *models.BridgeConfig) (types.Webhook, error) {
	p.mu.RLock()
	wh, ok := p.cache[channelID]
	p.mu.RUnlock()
	if ok {
		return wh, nil
	}

	ch, err := p.transport.Channel(ctx, channelID)
	if err != nil {
		return types.Webhook{}, models.ProvisionError{ChannelID: channelID, Err: err}
	}
	if !ch.TextCapable {
		return types.Webhook{}, models.ProvisionError{
			ChannelID: channelID,
			Err:       models.InvalidChannelError{ChannelID: channelID, Reason: "not a text channel"},
		}
	}

	hooks, err := p.transport.ChannelWebhooks(ctx, channelID)
	if err != nil {
		return types.Webhook{}, models.ProvisionError{ChannelID: channelID, Err: err}
	}

	if len(hooks) > 0 {
		p.logger.WithFields(logrus.Fields{
			"channelId": channelID,
			"bridge":    bridge.Name,
		}).Debug("Reusing existing webhook")
		wh = hooks[0]
	} else {
		p.logger.WithFields(logrus.Fields{
			"channelId": channelID,
			"bridge":    bridge.Name,
		}).Info("Creating webhook")
		var created *types.Webhook
		err := p.backoff.Do(ctx, func() error {
			var cerr error
			created, cerr = p.transport.CreateWebhook(ctx, channelID, bridge.Name)
			return cerr
		})
		if err != nil {
			return types.Webhook{}, models.ProvisionError{ChannelID: channelID, Err: err}
		}
		wh = *created
		p.logger.WithFields(logrus.Fields{
			"channelId": channelID,
			"webhookId": wh.ID,
			"token":     privacy.MaskToken(wh.Token),
		}).Debug("Webhook created")
	}

	p.mu.Lock()
	p.cache[channelID] = wh
	p.mu.Unlock()
	return wh, nil
}

// Converge makes sure every channel of every given bridge has a cached send
// proxy. Provisioning failures are logged and leave that channel out of the
// working set until a later convergence succeeds; they never abort the rest
// of the sweep.
func (p *Provisioner) Converge(ctx context.Context, bridges []models.BridgeConfig) {
	for i := range bridges {
		bridge := &bridges[i]
		for _, channelID := range bridge.Channels {
			if _, err := p.Ensure(ctx, channelID, bridge); err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"channelId": channelID,
					"bridgeId":  bridge.ID,
				}).Warn("Failed to provision webhook")
			}
		}
	}
}

// Lookup returns the cached send proxy for a channel, if provisioned.
func (p *Provisioner) Lookup(channelID string) (types.Webhook, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	wh, ok := p.cache[channelID]
	return wh, ok
}
