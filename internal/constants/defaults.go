package constants

// Relay limits and defaults
const (
	// MaxMessageLength is Discord's hard cap on message content.
	MaxMessageLength = 2000

	DefaultCommandPrefix = "!"
	DefaultNameFormat    = "{{USERNAME}} ({{GUILDNAME}})"

	GuildNamePlaceholder = "{{GUILDNAME}}"
	UserNamePlaceholder  = "{{USERNAME}}"

	// RedactionMarker replaces reserved platform names in relayed
	// display names.
	RedactionMarker = "[redacted]"

	// MinBridgeChannels is the smallest channel set a bridge may hold.
	MinBridgeChannels = 2

	// Circuit breaker settings for destination channels: after this many
	// consecutive delivery failures the destination is skipped until the
	// cooldown passes.
	BreakerMaxFailures = 5
	BreakerCooldownSec = 30
)

// Default file locations
const (
	DefaultBridgeDir    = "bridges"
	DefaultDatabasePath = "chanbridge.db"
)

// Default server configuration values
const (
	DefaultServerPort            = 8084
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)
