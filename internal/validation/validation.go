// Package validation checks operator-supplied input before it reaches the
// registry or the transport.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

const maxBridgeNameLength = 100

// ValidateBridgeName checks a bridge name. Names become webhook names and
// file content, so control characters and empty values are rejected.
func ValidateBridgeName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("bridge name cannot be empty")
	}
	if len(trimmed) > maxBridgeNameLength {
		return fmt.Errorf("bridge name too long (max %d characters)", maxBridgeNameLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("bridge name contains control characters")
		}
	}
	return nil
}

// ValidateChannelID checks the shape of a channel id before any API call is
// made with it. Existence and type are verified against the transport
// separately.
func ValidateChannelID(channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}
	for _, r := range channelID {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("channel id contains invalid characters")
		}
	}
	return nil
}
