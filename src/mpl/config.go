package mpl

import (
	"fmt"
	"time"
)

// Default protocol parameters. Interval defaults assume a link-layer latency
// of the order of 10ms.
const (
	DefaultReactiveForwarding             = true
	DefaultProactiveForwarding            = true
	DefaultSeedSetEntryLifetime           = 30 * 60
	DefaultDataMessageIMin                = 100 * time.Millisecond
	DefaultDataMessageIMax                = DefaultDataMessageIMin
	DefaultDataMessageK                   = 1
	DefaultDataMessageTimerExpirations    = 3
	DefaultControlMessageIMin             = 500 * time.Millisecond
	DefaultControlMessageIMax             = 5 * time.Minute
	DefaultControlMessageK                = 1
	DefaultControlMessageTimerExpirations = 10
	DefaultIsSeed                         = false

	// DefaultMinSequenceMargin is the number of sequence numbers kept below
	// the latest "more"-flagged message before MinSequence is advanced.
	DefaultMinSequenceMargin = 4
)

// Config holds the protocol parameters of an Engine. The mapstructure tags are
// the option names recognised by the configuration layer.
type Config struct {
	// ReactiveForwarding enables control messages and the repairs they
	// trigger.
	ReactiveForwarding bool `mapstructure:"REACTIVE_FORWARDING"`

	// ProactiveForwarding arms a data trickle timer for every new message.
	ProactiveForwarding bool `mapstructure:"PROACTIVE_FORWARDING"`

	// SeedSetEntryLifetime is the number of lifecycle ticks (seconds) after
	// which a seed that has not produced fresh data is forgotten.
	SeedSetEntryLifetime int `mapstructure:"SEED_SET_ENTRY_LIFETIME"`

	DataMessageIMin time.Duration `mapstructure:"DATA_MESSAGE_IMIN"`
	DataMessageIMax time.Duration `mapstructure:"DATA_MESSAGE_IMAX"`

	// DataMessageK is the trickle redundancy constant. It is accepted for
	// compatibility but suppression is not implemented.
	DataMessageK int `mapstructure:"DATA_MESSAGE_K"`

	// DataMessageTimerExpirations bounds the number of times a buffered
	// message is retransmitted before it is retired.
	DataMessageTimerExpirations int `mapstructure:"DATA_MESSAGE_TIMER_EXPIRATIONS"`

	ControlMessageIMin time.Duration `mapstructure:"CONTROL_MESSAGE_IMIN"`
	ControlMessageIMax time.Duration `mapstructure:"CONTROL_MESSAGE_IMAX"`

	// ControlMessageK is accepted for compatibility and unused.
	ControlMessageK int `mapstructure:"CONTROL_MESSAGE_K"`

	// ControlMessageTimerExpirations bounds the number of consecutive control
	// rounds without an inconsistency.
	ControlMessageTimerExpirations int `mapstructure:"CONTROL_MESSAGE_TIMER_EXPIRATIONS"`

	// IsSeed allows the node to originate data with SeedID.
	IsSeed bool   `mapstructure:"IS_SEED"`
	SeedID SeedID `mapstructure:"SEED_ID"`

	// MinSequenceMargin is the policy constant used to advance a seed's
	// MinSequence on "more"-flagged messages.
	MinSequenceMargin int `mapstructure:"MIN_SEQUENCE_MARGIN"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		ReactiveForwarding:             DefaultReactiveForwarding,
		ProactiveForwarding:            DefaultProactiveForwarding,
		SeedSetEntryLifetime:           DefaultSeedSetEntryLifetime,
		DataMessageIMin:                DefaultDataMessageIMin,
		DataMessageIMax:                DefaultDataMessageIMax,
		DataMessageK:                   DefaultDataMessageK,
		DataMessageTimerExpirations:    DefaultDataMessageTimerExpirations,
		ControlMessageIMin:             DefaultControlMessageIMin,
		ControlMessageIMax:             DefaultControlMessageIMax,
		ControlMessageK:                DefaultControlMessageK,
		ControlMessageTimerExpirations: DefaultControlMessageTimerExpirations,
		IsSeed:                         DefaultIsSeed,
		MinSequenceMargin:              DefaultMinSequenceMargin,
	}
}

// Validate checks that the parameters are usable.
func (c *Config) Validate() error {
	if c.DataMessageIMin < 0 || c.DataMessageIMax < c.DataMessageIMin {
		return fmt.Errorf("invalid data message interval [%v, %v]", c.DataMessageIMin, c.DataMessageIMax)
	}
	if c.ControlMessageIMin < 0 || c.ControlMessageIMax < c.ControlMessageIMin {
		return fmt.Errorf("invalid control message interval [%v, %v]", c.ControlMessageIMin, c.ControlMessageIMax)
	}
	if c.DataMessageTimerExpirations < 1 {
		return fmt.Errorf("DATA_MESSAGE_TIMER_EXPIRATIONS must be positive, got %d", c.DataMessageTimerExpirations)
	}
	if c.ControlMessageTimerExpirations < 1 {
		return fmt.Errorf("CONTROL_MESSAGE_TIMER_EXPIRATIONS must be positive, got %d", c.ControlMessageTimerExpirations)
	}
	if c.SeedSetEntryLifetime < 1 {
		return fmt.Errorf("SEED_SET_ENTRY_LIFETIME must be positive, got %d", c.SeedSetEntryLifetime)
	}
	if c.MinSequenceMargin < 0 {
		return fmt.Errorf("MIN_SEQUENCE_MARGIN must not be negative, got %d", c.MinSequenceMargin)
	}
	return nil
}
