package config

import (
	"time"
)

// Config is the root configuration for duet.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Events    EventsConfig    `json:"events"`
	Log       LogConfig       `json:"log"`
	UI        UIConfig        `json:"ui"`
	Sessions  SessionsConfig  `json:"sessions"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int  `json:"buffer_size"`
	Journal    bool `json:"journal"` // append session events to $DUET_PATH/journal
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// UIConfig holds defaults for the user-facing surfaces.
type UIConfig struct {
	Variant string `json:"variant"` // hooks, signals
}

// SessionsConfig bounds the in-memory session registry.
type SessionsConfig struct {
	Max           int      `json:"max"`
	IdleTTL       Duration `json:"idle_ttl"`
	SweepInterval Duration `json:"sweep_interval"`
}

// HeartbeatConfig configures the liveness file written by serve.
type HeartbeatConfig struct {
	Interval Duration `json:"interval"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
