package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chanbridge/internal/metrics"
	"chanbridge/internal/models"
	"chanbridge/pkg/discord/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func relayFixture(bridges []models.BridgeConfig, hooks map[string]types.Webhook) (*Relay, *mockTransport) {
	transport := &mockTransport{botUserID: "bot-1"}
	relay := NewRelay(transport, &stubRegistry{bridges: bridges}, newStubProvisioner(hooks), "!", metrics.NewRegistry(), testLogger())
	return relay, transport
}

func twoChannelBridge() models.BridgeConfig {
	return models.BridgeConfig{
		ID:         "bridge-1",
		Name:       "test",
		NameFormat: "{{USERNAME}} ({{GUILDNAME}})",
		Channels:   []string{"chan-a", "chan-c"},
	}
}

func sourceMessage() *types.MessageEvent {
	return &types.MessageEvent{
		MessageID:         "msg-1",
		ChannelID:         "chan-a",
		GuildID:           "guild-1",
		GuildName:         "Test Guild",
		AuthorID:          "user-1",
		AuthorDisplayName: "alice",
		Content:           "hello",
	}
}

func TestRelay_CreateRelaysToSisterChannel(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", Token: "t", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-a": {ID: "wh-a"}, "chan-c": whC},
	)

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.MatchedBy(func(msg types.WebhookSend) bool {
		return msg.Content == "hello" && msg.Username == "alice (Test Guild)"
	})).Return("remote-1", nil).Once()

	relay.HandleMessageCreate(context.Background(), sourceMessage())

	transport.AssertExpectations(t)
	remotes, ok := relay.Messages().Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"chan-c": "remote-1"}, remotes)
}

func TestRelay_CreateAppendsAttachmentURLs(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": whC},
	)

	msg := sourceMessage()
	msg.AttachmentURLs = []string{"https://cdn.example/a.png"}

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.MatchedBy(func(send types.WebhookSend) bool {
		return send.Content == "hello\nhttps://cdn.example/a.png"
	})).Return("remote-1", nil).Once()

	relay.HandleMessageCreate(context.Background(), msg)
	transport.AssertExpectations(t)
}

func TestRelay_CreateSkips(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.MessageEvent)
	}{
		{
			name:   "webhook origin breaks relay loops",
			mutate: func(m *types.MessageEvent) { m.WebhookID = "wh-x" },
		},
		{
			name:   "bot author",
			mutate: func(m *types.MessageEvent) { m.AuthorIsBot = true },
		},
		{
			name: "empty message",
			mutate: func(m *types.MessageEvent) {
				m.Content = ""
				m.AttachmentURLs = nil
				m.Embeds = nil
			},
		},
		{
			name:   "command prefix",
			mutate: func(m *types.MessageEvent) { m.Content = "!ping" },
		},
		{
			name:   "channel not bridged",
			mutate: func(m *types.MessageEvent) { m.ChannelID = "chan-unbridged" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay, transport := relayFixture(
				[]models.BridgeConfig{twoChannelBridge()},
				map[string]types.Webhook{"chan-c": {ID: "wh-c"}},
			)

			msg := sourceMessage()
			tt.mutate(msg)
			relay.HandleMessageCreate(context.Background(), msg)

			transport.AssertNotCalled(t, "SendWebhookMessage", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, 0, relay.Messages().Len())
		})
	}
}

func TestRelay_CreatePartialFailureKeepsSuccessfulMapping(t *testing.T) {
	bridge := models.BridgeConfig{
		ID:       "bridge-1",
		Name:     "test",
		Channels: []string{"chan-a", "chan-c", "chan-d"},
	}
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	whD := types.Webhook{ID: "wh-d", ChannelID: "chan-d"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{bridge},
		map[string]types.Webhook{"chan-c": whC, "chan-d": whD},
	)

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.Anything).Return("remote-c", nil).Once()
	transport.On("SendWebhookMessage", mock.Anything, whD, mock.Anything).Return("", errors.New("channel unreachable")).Once()

	relay.HandleMessageCreate(context.Background(), sourceMessage())

	transport.AssertExpectations(t)
	remotes, ok := relay.Messages().Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"chan-c": "remote-c"}, remotes)

	// A later edit touches only the destination that succeeded.
	transport.On("EditWebhookMessage", mock.Anything, whC, "remote-c", mock.Anything).Return(nil).Once()

	edit := sourceMessage()
	edit.Content = "hello world"
	relay.HandleMessageUpdate(context.Background(), edit)

	transport.AssertExpectations(t)
	transport.AssertNotCalled(t, "EditWebhookMessage", mock.Anything, whD, mock.Anything, mock.Anything)
}

func TestRelay_CreateAllFailuresRecordsNothing(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": whC},
	)

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.Anything).Return("", errors.New("boom")).Once()

	relay.HandleMessageCreate(context.Background(), sourceMessage())

	_, ok := relay.Messages().Get("msg-1")
	assert.False(t, ok)
}

func TestRelay_BlacklistAppliesPerBridge(t *testing.T) {
	blacklisting := models.BridgeConfig{
		ID:             "bridge-strict",
		Name:           "strict",
		Channels:       []string{"chan-a", "chan-c"},
		BlacklistRoles: []string{"role-muted"},
	}
	open := models.BridgeConfig{
		ID:       "bridge-open",
		Name:     "open",
		Channels: []string{"chan-a", "chan-d"},
	}
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	whD := types.Webhook{ID: "wh-d", ChannelID: "chan-d"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{blacklisting, open},
		map[string]types.Webhook{"chan-c": whC, "chan-d": whD},
	)

	transport.On("SendWebhookMessage", mock.Anything, whD, mock.Anything).Return("remote-d", nil).Once()

	msg := sourceMessage()
	msg.AuthorRoleIDs = []string{"role-muted"}
	relay.HandleMessageCreate(context.Background(), msg)

	transport.AssertExpectations(t)
	transport.AssertNotCalled(t, "SendWebhookMessage", mock.Anything, whC, mock.Anything)

	remotes, ok := relay.Messages().Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"chan-d": "remote-d"}, remotes)
}

func TestRelay_UpdateWithoutMappingIsNoOp(t *testing.T) {
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": {ID: "wh-c"}},
	)

	relay.HandleMessageUpdate(context.Background(), sourceMessage())

	transport.AssertNotCalled(t, "EditWebhookMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRelay_UpdateTruncatesContent(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": whC},
	)
	relay.Messages().Put("msg-1", map[string]string{"chan-c": "remote-c"})

	transport.On("EditWebhookMessage", mock.Anything, whC, "remote-c", mock.MatchedBy(func(edit types.WebhookEdit) bool {
		return len([]rune(edit.Content)) == 2000
	})).Return(nil).Once()

	edit := sourceMessage()
	edit.Content = strings.Repeat("x", 2500)
	relay.HandleMessageUpdate(context.Background(), edit)

	transport.AssertExpectations(t)
}

func TestRelay_DeleteRemovesMappingEvenOnFailure(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": whC},
	)
	relay.Messages().Put("msg-1", map[string]string{"chan-c": "remote-c"})

	transport.On("DeleteWebhookMessage", mock.Anything, whC, "remote-c").Return(errors.New("already gone")).Once()

	relay.HandleMessageDelete(context.Background(), sourceMessage())

	transport.AssertExpectations(t)
	_, ok := relay.Messages().Get("msg-1")
	assert.False(t, ok)

	// Second delete finds nothing and must not attempt again.
	relay.HandleMessageDelete(context.Background(), sourceMessage())
	transport.AssertNumberOfCalls(t, "DeleteWebhookMessage", 1)
}

func TestRelay_BreakerSuppressesFailingDestination(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": whC},
	)

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.Anything).
		Return("", errors.New("channel unreachable")).Times(5)

	for i := 0; i < 5; i++ {
		msg := sourceMessage()
		msg.MessageID = "msg-" + strings.Repeat("x", i+1)
		relay.HandleMessageCreate(context.Background(), msg)
	}
	transport.AssertExpectations(t)

	// The breaker is open now: the next message fails fast, no send attempt.
	relay.HandleMessageCreate(context.Background(), sourceMessage())
	transport.AssertNumberOfCalls(t, "SendWebhookMessage", 5)
	assert.Equal(t, 0, relay.Messages().Len())
}

func TestRelay_CountsOutcomes(t *testing.T) {
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	transport := &mockTransport{botUserID: "bot-1"}
	stats := metrics.NewRegistry()
	relay := NewRelay(transport, &stubRegistry{bridges: []models.BridgeConfig{twoChannelBridge()}},
		newStubProvisioner(map[string]types.Webhook{"chan-c": whC}), "!", stats, testLogger())

	transport.On("SendWebhookMessage", mock.Anything, whC, mock.Anything).Return("remote-1", nil).Once()
	transport.On("DeleteWebhookMessage", mock.Anything, whC, "remote-1").Return(nil).Once()

	relay.HandleMessageCreate(context.Background(), sourceMessage())

	skipped := sourceMessage()
	skipped.AuthorIsBot = true
	relay.HandleMessageCreate(context.Background(), skipped)

	relay.HandleMessageDelete(context.Background(), sourceMessage())

	assert.Equal(t, int64(1), stats.Counter(metrics.MessagesRelayed))
	assert.Equal(t, int64(1), stats.Counter(metrics.MessagesSkipped))
	assert.Equal(t, int64(1), stats.Counter(metrics.DeletesPropagated))
	assert.Equal(t, int64(0), stats.Counter(metrics.DeliveriesFailed))
}

func TestRelay_EditAndDeleteFailuresCounted(t *testing.T) {
	bridge := models.BridgeConfig{
		ID:       "bridge-1",
		Name:     "test",
		Channels: []string{"chan-a", "chan-c", "chan-d"},
	}
	whC := types.Webhook{ID: "wh-c", ChannelID: "chan-c"}
	whD := types.Webhook{ID: "wh-d", ChannelID: "chan-d"}
	transport := &mockTransport{botUserID: "bot-1"}
	stats := metrics.NewRegistry()
	relay := NewRelay(transport, &stubRegistry{bridges: []models.BridgeConfig{bridge}},
		newStubProvisioner(map[string]types.Webhook{"chan-c": whC, "chan-d": whD}), "!", stats, testLogger())
	relay.Messages().Put("msg-1", map[string]string{"chan-c": "remote-c", "chan-d": "remote-d"})

	// One destination edits, one fails: the edit still counts as
	// propagated, and the failure is recorded.
	transport.On("EditWebhookMessage", mock.Anything, whC, "remote-c", mock.Anything).Return(nil).Once()
	transport.On("EditWebhookMessage", mock.Anything, whD, "remote-d", mock.Anything).Return(errors.New("gone")).Once()

	edit := sourceMessage()
	edit.Content = "hello world"
	relay.HandleMessageUpdate(context.Background(), edit)

	assert.Equal(t, int64(1), stats.Counter(metrics.EditsPropagated))
	assert.Equal(t, int64(1), stats.Counter(metrics.DeliveriesFailed))

	// Every destination fails the delete: nothing propagated, both
	// failures counted, mapping dropped regardless.
	transport.On("DeleteWebhookMessage", mock.Anything, whC, "remote-c").Return(errors.New("gone")).Once()
	transport.On("DeleteWebhookMessage", mock.Anything, whD, "remote-d").Return(errors.New("gone")).Once()

	relay.HandleMessageDelete(context.Background(), sourceMessage())

	transport.AssertExpectations(t)
	assert.Equal(t, int64(0), stats.Counter(metrics.DeletesPropagated))
	assert.Equal(t, int64(3), stats.Counter(metrics.DeliveriesFailed))
	assert.Equal(t, 0, relay.Messages().Len())
}

func TestRelay_UpdateIgnoresBotAndWebhookEdits(t *testing.T) {
	relay, transport := relayFixture(
		[]models.BridgeConfig{twoChannelBridge()},
		map[string]types.Webhook{"chan-c": {ID: "wh-c"}},
	)
	relay.Messages().Put("msg-1", map[string]string{"chan-c": "remote-c"})

	botEdit := sourceMessage()
	botEdit.AuthorIsBot = true
	relay.HandleMessageUpdate(context.Background(), botEdit)

	proxyEdit := sourceMessage()
	proxyEdit.WebhookID = "wh-x"
	relay.HandleMessageUpdate(context.Background(), proxyEdit)

	transport.AssertNotCalled(t, "EditWebhookMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
