package config

import (
	"fmt"

	"github.com/flavioheleno/ledticker/font"
	"github.com/flavioheleno/ledticker/logging"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// DISPLAY
	// ------------------------------------------------------------

	if p := cfg.Display.BrightnessPercent; p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("display: brightness_percent %d out of range 0-100", *p)
	}

	// ------------------------------------------------------------
	// TICKER
	// ------------------------------------------------------------

	t := cfg.Ticker
	if t.Capacity < 2 {
		return fmt.Errorf("ticker: capacity must be at least 2, got %d", t.Capacity)
	}
	if t.Message == "" {
		return fmt.Errorf("ticker: message must not be empty")
	}
	if !isPrintableASCII(t.Message) {
		return fmt.Errorf("ticker: message must contain printable ASCII characters only")
	}
	// One slot is kept for the trailing separator.
	if len(t.Message) > t.Capacity-1 {
		return fmt.Errorf("ticker: message is %d bytes, capacity allows %d", len(t.Message), t.Capacity-1)
	}
	if t.SpeedMs <= 0 {
		return fmt.Errorf("ticker: speed_ms must be positive, got %d", t.SpeedMs)
	}
	if _, err := font.ByName(t.Font); err != nil {
		return fmt.Errorf("ticker: %w", err)
	}
	if len(t.Fallback) > 1 || !isPrintableASCII(t.Fallback) {
		return fmt.Errorf("ticker: fallback must be a single printable ASCII character, got %q", t.Fallback)
	}

	// ------------------------------------------------------------
	// NETWORK
	// ------------------------------------------------------------

	n := cfg.Network
	if !n.Disabled {
		switch n.Backend {
		case "nmcli":
			if n.SSID == "" {
				return fmt.Errorf("network: ssid is required by the nmcli backend")
			}
		case "wpa_cli":
		default:
			return fmt.Errorf("network: unknown backend %q", n.Backend)
		}
		if n.WindowS < 0 {
			return fmt.Errorf("network: window_s must not be negative")
		}
		if n.PollS <= 0 {
			return fmt.Errorf("network: poll_s must be positive")
		}
		if n.ConnectTimeoutS <= 0 {
			return fmt.Errorf("network: connect_timeout_s must be positive")
		}
		r := n.Retry
		if r.InitialMs < 0 || r.MaxMs < 0 {
			return fmt.Errorf("network: retry delays must not be negative")
		}
		if r.Multiplier != 0 && r.Multiplier < 1 {
			return fmt.Errorf("network: retry multiplier must be at least 1, got %g", r.Multiplier)
		}
		if r.MaxMs > 0 && r.MaxMs < r.InitialMs {
			return fmt.Errorf("network: retry max_ms %d is below initial_ms %d", r.MaxMs, r.InitialMs)
		}
	}

	// ------------------------------------------------------------
	// STATUS LIGHT (OPT-IN)
	// ------------------------------------------------------------

	s := cfg.Status
	if s.Pin != "" && s.GPIOChip != "" {
		return fmt.Errorf("status: pin and gpiochip are mutually exclusive")
	}
	if s.GPIOChip != "" && s.Line < 0 {
		return fmt.Errorf("status: line must not be negative, got %d", s.Line)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Mirror.Scale < 0 {
		return fmt.Errorf("mirror: scale must not be negative, got %d", cfg.Mirror.Scale)
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok && cfg.Log.Level != "" {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}

// isPrintableASCII accepts 0x20 (space) through 0x7E (~).
func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
