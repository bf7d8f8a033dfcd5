package models

// Config holds the application configuration
type Config struct {
	Discord   DiscordConfig  `json:"discord"`
	BridgeDir string         `json:"bridge_dir" env:"CHANBRIDGE_BRIDGE_DIR"`
	Database  DatabaseConfig `json:"database"`
	Server    ServerConfig   `json:"server"`
	Tracing   TracingConfig  `json:"tracing"`
	LogLevel  string         `json:"log_level" env:"CHANBRIDGE_LOG_LEVEL"`
}

// DiscordConfig holds the transport credentials and bot behaviour knobs.
// The token is never read from the config file.
type DiscordConfig struct {
	Token         string `json:"-" env:"DISCORD_TOKEN"`
	OwnerID       string `json:"owner_id" env:"CHANBRIDGE_OWNER_ID"`
	CommandPrefix string `json:"command_prefix"`
	Activity      string `json:"activity"`
}

// DatabaseConfig holds the role-snapshot store location.
type DatabaseConfig struct {
	Path string `json:"path" env:"CHANBRIDGE_DB_PATH"`
}

// ServerConfig holds the operational HTTP server settings.
type ServerConfig struct {
	Port int `json:"port" env:"PORT"`
}

// TracingConfig contains OpenTelemetry configuration
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint" env:"CHANBRIDGE_OTLP_ENDPOINT"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled" env:"CHANBRIDGE_TRACING_ENABLED"`
	UseStdout      bool    `json:"use_stdout"`
}
