package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"chanbridge/internal/constants"
	"chanbridge/internal/metrics"
	"chanbridge/internal/models"
	"chanbridge/internal/tracing"
	"chanbridge/pkg/circuitbreaker"
	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// BridgeLookup is the registry surface the relay engine consumes.
type BridgeLookup interface {
	BridgesFor(channelID string) []models.BridgeConfig
}

// ProxyLookup resolves the cached send proxy for a destination channel.
type ProxyLookup interface {
	Lookup(channelID string) (types.Webhook, bool)
}

// Relay is the propagation engine: it receives message lifecycle events and
// reproduces them in the sister channels of every owning bridge through the
// per-channel send proxies, keeping the identity map in sync.
type Relay struct {
	transport types.Transport
	registry  BridgeLookup
	proxies   ProxyLookup
	messages  *IdentityMap
	prefix    string
	stats     *metrics.Registry
	logger    *logrus.Logger

	breakerMu sync.Mutex
	breakers  map[string]*circuitbreaker.Breaker // destination channel id
}

func NewRelay(transport types.Transport, registry BridgeLookup, proxies ProxyLookup, commandPrefix string, stats *metrics.Registry, logger *logrus.Logger) *Relay {
	return &Relay{
		transport: transport,
		registry:  registry,
		proxies:   proxies,
		messages:  NewIdentityMap(),
		prefix:    commandPrefix,
		stats:     stats,
		logger:    logger,
		breakers:  make(map[string]*circuitbreaker.Breaker),
	}
}

// breakerFor returns the delivery circuit breaker for a destination channel,
// creating it on first use.
func (r *Relay) breakerFor(channelID string) *circuitbreaker.Breaker {
	r.breakerMu.Lock()
	defer r.breakerMu.Unlock()
	b, ok := r.breakers[channelID]
	if !ok {
		b = circuitbreaker.New(channelID, constants.BreakerMaxFailures, constants.BreakerCooldownSec*time.Second)
		r.breakers[channelID] = b
	}
	return b
}

// Messages exposes the identity map for operational introspection.
func (r *Relay) Messages() *IdentityMap {
	return r.messages
}

// deliveryResult is the outcome of one fan-out attempt to one destination.
type deliveryResult struct {
	ChannelID string
	RemoteID  string
	Err       error
}

// shouldSkip applies the bridge-independent create filters: messages from
// webhooks (our own relayed copies included), other bots, empty messages,
// and command invocations never relay.
func (r *Relay) shouldSkip(msg *types.MessageEvent) bool {
	if msg.WebhookID != "" {
		return true
	}
	if msg.AuthorIsBot {
		return true
	}
	if msg.Content == "" && len(msg.AttachmentURLs) == 0 && len(msg.Embeds) == 0 {
		return true
	}
	if strings.HasPrefix(msg.Content, r.prefix) {
		return true
	}
	return false
}

// HandleMessageCreate fans a new message out to every other channel of
// every bridge the source channel belongs to, then records the successful
// destination -> remote id pairs under the source id. The map write happens
// exactly once, after all attempts have resolved, so a racing edit or
// delete can never observe a half-built entry.
func (r *Relay) HandleMessageCreate(ctx context.Context, msg *types.MessageEvent) {
	if r.shouldSkip(msg) {
		r.stats.Increment(metrics.MessagesSkipped)
		return
	}

	bridges := r.registry.BridgesFor(msg.ChannelID)
	if len(bridges) == 0 {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "relay.message_create",
		attribute.String("channel.id", msg.ChannelID),
		attribute.Int("bridge.count", len(bridges)),
	)
	defer span.End()

	remotes := make(map[string]string)
	for i := range bridges {
		bridge := &bridges[i]

		// Blacklists apply per bridge: a role suppressed here may
		// still relay under another bridge sharing the channel.
		if bridge.BlacklistsAny(msg.AuthorRoleIDs) {
			r.logger.WithFields(logrus.Fields{
				"bridgeId":  bridge.ID,
				"messageId": msg.MessageID,
			}).Debug("Author role is blacklisted, skipping bridge")
			continue
		}

		for _, res := range r.fanOut(ctx, bridge, msg) {
			if res.Err != nil {
				tracing.RecordError(ctx, res.Err)
				r.stats.Increment(metrics.DeliveriesFailed)
				r.logger.WithError(res.Err).WithFields(logrus.Fields{
					"bridgeId":  bridge.ID,
					"channelId": res.ChannelID,
					"messageId": msg.MessageID,
				}).Error("Failed to relay message")
				continue
			}
			remotes[res.ChannelID] = res.RemoteID
		}
	}

	// An entry exists only for messages that reached at least one
	// destination; "seen but not relayed" is not recorded.
	if len(remotes) > 0 {
		r.messages.Put(msg.MessageID, remotes)
		r.stats.Increment(metrics.MessagesRelayed)
		r.stats.SetGauge(metrics.TrackedMessages, float64(r.messages.Len()))
	}
}

// fanOut attempts delivery to every channel of the bridge except the
// source, concurrently. Each destination gets its own result slot; a
// failure in one never aborts the others.
func (r *Relay) fanOut(ctx context.Context, bridge *models.BridgeConfig, msg *types.MessageEvent) []deliveryResult {
	var destinations []string
	for _, channelID := range bridge.Channels {
		if channelID != msg.ChannelID {
			destinations = append(destinations, channelID)
		}
	}

	results := make([]deliveryResult, len(destinations))
	var wg sync.WaitGroup
	for i, channelID := range destinations {
		wg.Add(1)
		go func(i int, channelID string) {
			defer wg.Done()
			results[i] = r.deliver(ctx, bridge, channelID, msg)
		}(i, channelID)
	}
	wg.Wait()
	return results
}

func (r *Relay) deliver(ctx context.Context, bridge *models.BridgeConfig, channelID string, msg *types.MessageEvent) deliveryResult {
	wh, ok := r.proxies.Lookup(channelID)
	if !ok {
		return deliveryResult{
			ChannelID: channelID,
			Err:       models.ProvisionError{ChannelID: channelID, Err: errNoProxy},
		}
	}

	breaker := r.breakerFor(channelID)
	if !breaker.Allow() {
		return deliveryResult{
			ChannelID: channelID,
			Err:       &circuitbreaker.OpenError{Name: channelID},
		}
	}

	username := FormatDisplayName(bridge.NameFormat, msg.GuildName, SanitizeDisplayName(msg.AuthorDisplayName))

	content := msg.Content
	if len(msg.AttachmentURLs) > 0 {
		// Attachment URLs travel as content; Discord unfurls them in
		// the destination channel.
		if content != "" {
			content += "\n"
		}
		content += strings.Join(msg.AttachmentURLs, "\n")
	}

	remoteID, err := r.transport.SendWebhookMessage(ctx, wh, types.WebhookSend{
		Content:   content,
		Username:  username,
		AvatarURL: msg.AuthorAvatarURL,
		Embeds:    msg.Embeds,
	})
	if err != nil {
		breaker.RecordFailure()
	} else {
		breaker.RecordSuccess()
	}
	return deliveryResult{ChannelID: channelID, RemoteID: remoteID, Err: err}
}

// HandleMessageUpdate propagates an edit to every previously relayed copy.
// A missing mapping is expected (the message predates the process or was
// filtered at creation) and is a logged no-op.
func (r *Relay) HandleMessageUpdate(ctx context.Context, msg *types.MessageEvent) {
	if msg.AuthorIsBot || msg.WebhookID != "" {
		return
	}
	if len(r.registry.BridgesFor(msg.ChannelID)) == 0 {
		return
	}

	remotes, ok := r.messages.Get(msg.MessageID)
	if !ok {
		r.logger.WithField("messageId", msg.MessageID).Info("Edited message is not mapped, nothing to update")
		return
	}

	ctx, span := tracing.StartSpan(ctx, "relay.message_update",
		attribute.String("channel.id", msg.ChannelID),
		attribute.Int("destination.count", len(remotes)),
	)
	defer span.End()

	content := TruncateContent(msg.Content)
	edited := 0
	for channelID, remoteID := range remotes {
		wh, ok := r.proxies.Lookup(channelID)
		if !ok {
			r.stats.Increment(metrics.DeliveriesFailed)
			r.logger.WithField("channelId", channelID).Warn("No send proxy for mapped channel, skipping edit")
			continue
		}
		err := r.transport.EditWebhookMessage(ctx, wh, remoteID, types.WebhookEdit{
			Content: content,
			Embeds:  msg.Embeds,
		})
		if err != nil {
			tracing.RecordError(ctx, err)
			r.stats.Increment(metrics.DeliveriesFailed)
			r.logger.WithError(err).WithFields(logrus.Fields{
				"channelId": channelID,
				"messageId": msg.MessageID,
			}).Error("Failed to edit relayed message")
			continue
		}
		edited++
	}
	if edited > 0 {
		r.stats.Increment(metrics.EditsPropagated)
	}
}

// HandleMessageDelete deletes every relayed copy best-effort, then drops
// the mapping regardless of per-destination outcome. A second delete for
// the same id finds no mapping and no-ops.
func (r *Relay) HandleMessageDelete(ctx context.Context, msg *types.MessageEvent) {
	remotes, ok := r.messages.Get(msg.MessageID)
	if !ok {
		r.logger.WithField("messageId", msg.MessageID).Info("Deleted message is not mapped, nothing to delete")
		return
	}

	ctx, span := tracing.StartSpan(ctx, "relay.message_delete",
		attribute.String("channel.id", msg.ChannelID),
		attribute.Int("destination.count", len(remotes)),
	)
	defer span.End()

	deleted := 0
	for channelID, remoteID := range remotes {
		wh, ok := r.proxies.Lookup(channelID)
		if !ok {
			r.stats.Increment(metrics.DeliveriesFailed)
			r.logger.WithField("channelId", channelID).Warn("No send proxy for mapped channel, skipping delete")
			continue
		}
		if err := r.transport.DeleteWebhookMessage(ctx, wh, remoteID); err != nil {
			tracing.RecordError(ctx, err)
			r.stats.Increment(metrics.DeliveriesFailed)
			r.logger.WithError(err).WithFields(logrus.Fields{
				"channelId": channelID,
				"messageId": msg.MessageID,
			}).Error("Failed to delete relayed message")
			continue
		}
		deleted++
	}

	r.messages.Delete(msg.MessageID)
	if deleted > 0 {
		r.stats.Increment(metrics.DeletesPropagated)
	}
	r.stats.SetGauge(metrics.TrackedMessages, float64(r.messages.Len()))
}
