package models

import (
	"fmt"

	"chanbridge/internal/constants"
)

// BridgeConfig is the durable definition of one bridge: the channels it
// links, the display-name template for relayed copies, and the roles whose
// members are never relayed. One JSON file per bridge is kept on disk; the
// registry holds the in-memory working copies.
type BridgeConfig struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NameFormat     string   `json:"name_format"`
	Channels       []string `json:"channels"`
	BlacklistRoles []string `json:"blacklist_roles"`
}

// Validate checks the structural invariants of a bridge definition.
func (b *BridgeConfig) Validate() error {
	if b.ID == "" {
		return ConfigError{Message: "bridge id is empty"}
	}
	if b.Name == "" {
		return ConfigError{Message: fmt.Sprintf("bridge %s has no name", b.ID)}
	}
	if len(b.Channels) < constants.MinBridgeChannels {
		return ErrTooFewChannels
	}
	seen := make(map[string]bool, len(b.Channels))
	for _, ch := range b.Channels {
		if ch == "" {
			return ConfigError{Message: fmt.Sprintf("bridge %s contains an empty channel id", b.ID)}
		}
		if seen[ch] {
			return ConfigError{Message: fmt.Sprintf("bridge %s lists channel %s twice", b.ID, ch)}
		}
		seen[ch] = true
	}
	return nil
}

// HasChannel reports whether the channel participates in this bridge.
func (b *BridgeConfig) HasChannel(channelID string) bool {
	for _, ch := range b.Channels {
		if ch == channelID {
			return true
		}
	}
	return false
}

// BlacklistsAny reports whether any of the given role ids is blacklisted
// on this bridge.
func (b *BridgeConfig) BlacklistsAny(roleIDs []string) bool {
	if len(b.BlacklistRoles) == 0 || len(roleIDs) == 0 {
		return false
	}
	blocked := make(map[string]bool, len(b.BlacklistRoles))
	for _, r := range b.BlacklistRoles {
		blocked[r] = true
	}
	for _, r := range roleIDs {
		if blocked[r] {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing registry-owned slices.
func (b *BridgeConfig) Clone() BridgeConfig {
	c := *b
	c.Channels = append([]string(nil), b.Channels...)
	c.BlacklistRoles = append([]string(nil), b.BlacklistRoles...)
	return c
}
