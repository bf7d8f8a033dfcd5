package service

import (
	"context"
	"io"

	"chanbridge/internal/models"
	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Mock Discord transport
type mockTransport struct {
	mock.Mock
	botUserID    string
	botAvatarURL string
}

func (m *mockTransport) BotUserID() string {
	return m.botUserID
}

func (m *mockTransport) BotAvatarURL() string {
	return m.botAvatarURL
}

func (m *mockTransport) Channel(ctx context.Context, channelID string) (*types.ChannelInfo, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ChannelInfo), args.Error(1)
}

func (m *mockTransport) ChannelWebhooks(ctx context.Context, channelID string) ([]types.Webhook, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Webhook), args.Error(1)
}

func (m *mockTransport) CreateWebhook(ctx context.Context, channelID, name string) (*types.Webhook, error) {
	args := m.Called(ctx, channelID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Webhook), args.Error(1)
}

func (m *mockTransport) SendWebhookMessage(ctx context.Context, wh types.Webhook, msg types.WebhookSend) (string, error) {
	args := m.Called(ctx, wh, msg)
	return args.String(0), args.Error(1)
}

func (m *mockTransport) EditWebhookMessage(ctx context.Context, wh types.Webhook, messageID string, edit types.WebhookEdit) error {
	args := m.Called(ctx, wh, messageID, edit)
	return args.Error(0)
}

func (m *mockTransport) DeleteWebhookMessage(ctx context.Context, wh types.Webhook, messageID string) error {
	args := m.Called(ctx, wh, messageID)
	return args.Error(0)
}

func (m *mockTransport) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}

func (m *mockTransport) UpdatePresence(update types.PresenceUpdate) error {
	args := m.Called(update)
	return args.Error(0)
}

// In-memory bridge store
type fakeBridgeStore struct {
	saved     map[string]models.BridgeConfig
	saveErr   error
	deleteErr error
}

func newFakeBridgeStore() *fakeBridgeStore {
	return &fakeBridgeStore{saved: make(map[string]models.BridgeConfig)}
}

func (f *fakeBridgeStore) Save(bridge *models.BridgeConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[bridge.ID] = bridge.Clone()
	return nil
}

func (f *fakeBridgeStore) Delete(id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.saved[id]; !ok {
		return models.ErrBridgeNotFound
	}
	delete(f.saved, id)
	return nil
}

func (f *fakeBridgeStore) LoadAll() ([]models.BridgeConfig, error) {
	var bridges []models.BridgeConfig
	for _, b := range f.saved {
		bridges = append(bridges, b.Clone())
	}
	return bridges, nil
}

// Provisioner stub that records convergence calls
type stubProvisioner struct {
	hooks     map[string]types.Webhook
	converged [][]models.BridgeConfig
}

func newStubProvisioner(hooks map[string]types.Webhook) *stubProvisioner {
	if hooks == nil {
		hooks = make(map[string]types.Webhook)
	}
	return &stubProvisioner{hooks: hooks}
}

func (p *stubProvisioner) Ensure(ctx context.Context, channelID string, bridge *models.BridgeConfig) (types.Webhook, error) {
	if wh, ok := p.hooks[channelID]; ok {
		return wh, nil
	}
	return types.Webhook{}, models.ProvisionError{ChannelID: channelID, Err: errNoProxy}
}

func (p *stubProvisioner) Converge(ctx context.Context, bridges []models.BridgeConfig) {
	p.converged = append(p.converged, bridges)
}

func (p *stubProvisioner) Lookup(channelID string) (types.Webhook, bool) {
	wh, ok := p.hooks[channelID]
	return wh, ok
}

// Static bridge lookup for relay tests
type stubRegistry struct {
	bridges []models.BridgeConfig
}

func (s *stubRegistry) BridgesFor(channelID string) []models.BridgeConfig {
	var owning []models.BridgeConfig
	for i := range s.bridges {
		if s.bridges[i].HasChannel(channelID) {
			owning = append(owning, s.bridges[i].Clone())
		}
	}
	return owning
}

// Role store mock
type mockRoleStore struct {
	mock.Mock
}

func (m *mockRoleStore) SaveRoleSnapshot(ctx context.Context, userID string, roleIDs []string) error {
	args := m.Called(ctx, userID, roleIDs)
	return args.Error(0)
}

func (m *mockRoleStore) GetRoleSnapshot(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleStore) DeleteRoleSnapshot(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
