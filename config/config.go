// Package config loads the ledticker daemon configuration from YAML or TOML.
package config

import (
	"time"
)

type Config struct {
	Display DisplayConfig `yaml:"display" toml:"display"`
	Ticker  TickerConfig  `yaml:"ticker" toml:"ticker"`
	Network NetworkConfig `yaml:"network" toml:"network"`
	Status  StatusConfig  `yaml:"status" toml:"status"`
	Mirror  MirrorConfig  `yaml:"mirror" toml:"mirror"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	SPI       string `yaml:"spi" toml:"spi"`             // periph spireg name; empty = first port
	Intensity uint8  `yaml:"intensity" toml:"intensity"` // 0-255

	// Overrides intensity when set (0-100)
	BrightnessPercent *int `yaml:"brightness_percent" toml:"brightness_percent"`
	Rotated           bool `yaml:"rotated" toml:"rotated"`
}

// ---- TICKER ----

type TickerConfig struct {
	Message        string `yaml:"message" toml:"message"`
	Capacity       int    `yaml:"capacity" toml:"capacity"`
	SpeedMs        int    `yaml:"speed_ms" toml:"speed_ms"`
	Font           string `yaml:"font" toml:"font"`
	Fallback       string `yaml:"fallback" toml:"fallback"` // single ASCII character
	ResetOnMessage bool   `yaml:"reset_on_message" toml:"reset_on_message"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	Disabled        bool        `yaml:"disabled" toml:"disabled"`
	Interface       string      `yaml:"interface" toml:"interface"`
	SSID            string      `yaml:"ssid" toml:"ssid"`
	PSK             string      `yaml:"psk" toml:"psk"`
	Backend         string      `yaml:"backend" toml:"backend"` // nmcli | wpa_cli
	WindowS         int         `yaml:"window_s" toml:"window_s"`
	PollS           int         `yaml:"poll_s" toml:"poll_s"`
	ConnectTimeoutS int         `yaml:"connect_timeout_s" toml:"connect_timeout_s"`
	Retry           RetryConfig `yaml:"retry" toml:"retry"`
}

type RetryConfig struct {
	InitialMs  int     `yaml:"initial_ms" toml:"initial_ms"`
	MaxMs      int     `yaml:"max_ms" toml:"max_ms"`
	Multiplier float64 `yaml:"multiplier" toml:"multiplier"`
}

// ---- STATUS LIGHT ----

// StatusConfig selects at most one indicator output: a periph pin by name,
// or a character device line.
type StatusConfig struct {
	Pin       string `yaml:"pin" toml:"pin"`
	GPIOChip  string `yaml:"gpiochip" toml:"gpiochip"`
	Line      int    `yaml:"line" toml:"line"`
	ActiveLow bool   `yaml:"active_low" toml:"active_low"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	I2C     string `yaml:"i2c" toml:"i2c"` // periph i2creg name; empty = first bus
	Scale   int    `yaml:"scale" toml:"scale"`
	Invert  bool   `yaml:"invert" toml:"invert"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// TickInterval is the time between two scroll steps.
func (c TickerConfig) TickInterval() time.Duration {
	return time.Duration(c.SpeedMs) * time.Millisecond
}

// FallbackChar returns the replacement for characters missing from the font.
func (c TickerConfig) FallbackChar() byte {
	if c.Fallback == "" {
		return '?'
	}
	return c.Fallback[0]
}

func (c NetworkConfig) Window() time.Duration {
	return time.Duration(c.WindowS) * time.Second
}

func (c NetworkConfig) PollInterval() time.Duration {
	return time.Duration(c.PollS) * time.Second
}

func (c NetworkConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutS) * time.Second
}

func (c RetryConfig) Initial() time.Duration {
	return time.Duration(c.InitialMs) * time.Millisecond
}

func (c RetryConfig) Max() time.Duration {
	return time.Duration(c.MaxMs) * time.Millisecond
}
