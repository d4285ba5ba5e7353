package notify

import (
	"errors"
	"fmt"
)

// Config holds ntfy push configuration.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`   // ntfy server URL (default: https://ntfy.sh)
	Topic    string `mapstructure:"topic"`    // Topic name (required if enabled)
	Priority string `mapstructure:"priority"` // min, low, default, high, urgent
	Tags     string `mapstructure:"tags"`     // Comma-separated emoji tags
	Token    string `mapstructure:"token"`    // Optional access token for private topics
}

var validPriorities = map[string]bool{
	"min": true, "low": true, "default": true, "high": true, "urgent": true,
}

// ValidPriority reports whether p is an ntfy priority name.
func ValidPriority(p string) bool {
	return validPriorities[p]
}

// Validate checks configuration is valid when enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Topic == "" {
		return errors.New("topic is required when push is enabled")
	}
	if !ValidPriority(c.Priority) {
		return fmt.Errorf("invalid priority: %s (valid: min, low, default, high, urgent)", c.Priority)
	}
	return nil
}
