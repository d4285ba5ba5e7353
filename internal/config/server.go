package config

import (
	"strings"
	"time"
)

// StatusConfig configures the local status HTTP surface.
type StatusConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

// ListenAddr accepts a bare port ("8081") as well as host:port.
func (s StatusConfig) ListenAddr() string {
	addr := strings.TrimSpace(s.Addr)
	if addr == "" {
		return ":8081"
	}
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}
