package config

// Defaults.
const (
	DefaultMessage         = "HELLO"
	DefaultCapacity        = 100
	DefaultSpeedMs         = 70
	DefaultFont            = "basic"
	DefaultInterface       = "wlan0"
	DefaultBackend         = "nmcli"
	DefaultWindowS         = 30
	DefaultPollS           = 5
	DefaultConnectTimeoutS = 20
)

// ApplyDefaults fills zero values. It runs before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	t := &cfg.Ticker
	if t.Message == "" {
		t.Message = DefaultMessage
	}
	if t.Capacity == 0 {
		t.Capacity = DefaultCapacity
	}
	if t.SpeedMs == 0 {
		t.SpeedMs = DefaultSpeedMs
	}
	if t.Font == "" {
		t.Font = DefaultFont
	}
	if t.Fallback == "" {
		t.Fallback = "?"
	}

	n := &cfg.Network
	if n.Interface == "" {
		n.Interface = DefaultInterface
	}
	if n.Backend == "" {
		n.Backend = DefaultBackend
	}
	if n.WindowS == 0 {
		n.WindowS = DefaultWindowS
	}
	if n.PollS == 0 {
		n.PollS = DefaultPollS
	}
	if n.ConnectTimeoutS == 0 {
		n.ConnectTimeoutS = DefaultConnectTimeoutS
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
