package config

import (
	"encoding/json"
	"fmt"
	"os"

	"chanbridge/internal/constants"
	"chanbridge/internal/models"
	"chanbridge/internal/security"

	"github.com/caarlos0/env/v11"
)

var (
	ErrMissingToken   = models.ConfigError{Message: "missing Discord bot token (set DISCORD_TOKEN)"}
	ErrMissingOwnerID = models.ConfigError{Message: "missing operator user id"}
)

// LoadConfig reads the JSON config file, applies environment overrides on
// top of it, fills defaults, and validates the result. The bot token is
// environment-only.
func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(c *models.Config) {
	if c.Discord.CommandPrefix == "" {
		c.Discord.CommandPrefix = constants.DefaultCommandPrefix
	}
	if c.BridgeDir == "" {
		c.BridgeDir = constants.DefaultBridgeDir
	}
	if c.Database.Path == "" {
		c.Database.Path = constants.DefaultDatabasePath
	}
	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "chanbridge"
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 0.1
	}
}

func validate(c *models.Config) error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	if c.Discord.OwnerID == "" {
		return ErrMissingOwnerID
	}
	if len(c.Discord.CommandPrefix) != 1 {
		return models.ConfigError{Message: fmt.Sprintf("command prefix must be a single character, got %q", c.Discord.CommandPrefix)}
	}
	return nil
}
