package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"verbose", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	rt := DefaultConfig(ProfileRuntime)
	if rt.Level != zerolog.InfoLevel || !rt.Timestamp {
		t.Errorf("runtime config = %+v", rt)
	}
	tc := DefaultConfig(ProfileTest)
	if tc.Level != zerolog.DebugLevel || tc.Timestamp {
		t.Errorf("test config = %+v", tc)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "error",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
	}
	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })

	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if cfg.Timestamp {
		t.Error("Timestamp should be disabled")
	}
	if !cfg.NoColor {
		t.Error("NoColor should be enabled")
	}

	// Invalid values leave the config alone.
	env = map[string]string{EnvLogLevel: "loud", EnvLogNoColor: "maybe"}
	cfg = DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })
	if cfg.Level != zerolog.InfoLevel || cfg.NoColor {
		t.Errorf("config changed by invalid env: %+v", cfg)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("ledticker", Config{Level: zerolog.WarnLevel, NoColor: true, Out: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Str("iface", "wlan0").Msg("link lost")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	for _, want := range []string{"WRN", "link lost", "app=ledticker", "iface=wlan0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}
