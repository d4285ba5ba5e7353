package live

import (
	"fmt"
	"time"
)

// Phase is the live channel's connection phase.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

// State is a snapshot of the channel. Attempt is set while Reconnecting and
// counts consecutive failures.
type State struct {
	Phase     Phase     `json:"phase"`
	Attempt   int       `json:"attempt,omitempty"`
	Transport Kind      `json:"transport"`
	Since     time.Time `json:"since"`
	LastError string    `json:"last_error,omitempty"`
	// Delay is the backoff scheduled before the next attempt.
	Delay time.Duration `json:"delay,omitempty"`
}

func (s State) String() string {
	if s.Phase == Reconnecting {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Attempt)
	}
	return s.Phase.String()
}

// MarshalText lets the phase render by name in JSON snapshots.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
