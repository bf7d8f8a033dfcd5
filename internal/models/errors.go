package models

import (
	"errors"
	"fmt"
)

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

var (
	// ErrBridgeNotFound is returned by registry operations addressing an
	// unknown bridge id.
	ErrBridgeNotFound = errors.New("bridge not found")

	// ErrTooFewChannels is returned when an edit would shrink a bridge
	// below the minimum channel count.
	ErrTooFewChannels = errors.New("bridge must keep at least 2 channels")
)

// InvalidChannelError marks a channel that cannot participate in a bridge:
// it does not resolve, or it is not a guild text channel.
type InvalidChannelError struct {
	ChannelID string
	Reason    string
}

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("invalid channel %s: %s", e.ChannelID, e.Reason)
}

// ProvisionError marks a channel for which a send proxy could not be
// obtained. The channel stays out of the working webhook set until a later
// convergence succeeds.
type ProvisionError struct {
	ChannelID string
	Err       error
}

func (e ProvisionError) Error() string {
	return fmt.Sprintf("failed to provision webhook for channel %s: %v", e.ChannelID, e.Err)
}

func (e ProvisionError) Unwrap() error {
	return e.Err
}
