package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// brightness_percent wins over intensity
	if p := cfg.Display.BrightnessPercent; p != nil {
		cfg.Display.Intensity = uint8(*p * 255 / 100)
	}

	cfg.Display.SPI = strings.TrimSpace(cfg.Display.SPI)
	cfg.Ticker.Font = strings.ToLower(strings.TrimSpace(cfg.Ticker.Font))
	cfg.Network.Interface = strings.TrimSpace(cfg.Network.Interface)
	cfg.Status.Pin = strings.TrimSpace(cfg.Status.Pin)
	cfg.Status.GPIOChip = strings.TrimSpace(cfg.Status.GPIOChip)
	cfg.Mirror.I2C = strings.TrimSpace(cfg.Mirror.I2C)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}
