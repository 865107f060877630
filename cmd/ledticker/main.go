// Command ledticker scrolls a message across an 8x8 MAX7219 LED matrix and
// keeps the host's wireless link alive.
//
// Hardware Setup:
//
//	Module     Raspberry Pi
//	VCC        5V
//	GND        GND
//	DIN        GPIO10 (SPI0 MOSI)
//	CLK        GPIO11 (SPI0 CLK)
//	CS         GPIO8 (SPI0 CE0)
//
// Optional: an indicator LED on any GPIO and an SSD1306 OLED on I²C that
// mirrors the matrix.
//
// Usage:
//
//	ledticker -config /etc/ledticker.yaml
//
// SIGHUP reloads the message from the config file. A message given with
// -message keeps precedence across reloads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flavioheleno/ledticker/config"
	"github.com/flavioheleno/ledticker/font"
	"github.com/flavioheleno/ledticker/logging"
	"github.com/flavioheleno/ledticker/max7219"
	"github.com/flavioheleno/ledticker/mirror"
	"github.com/flavioheleno/ledticker/scheduler"
	"github.com/flavioheleno/ledticker/statuslight"
	"github.com/flavioheleno/ledticker/supervisor"
	"github.com/flavioheleno/ledticker/ticker"
	"github.com/flavioheleno/ledticker/wifi"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

var (
	configPath = flag.String("config", "/etc/ledticker.yaml", "Config file (.yaml, .yml or .toml)")
	message    = flag.String("message", "", "Message to scroll, overrides the config file")
	noWait     = flag.Bool("no-wait", false, "Start scrolling without waiting for the network")
)

func main() {
	flag.Parse()
	logging.InitLogger("ledticker", "")

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("ledticker failed")
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.InitLogger("ledticker", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize periph.io
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initialize periph.io: %w", err)
	}

	sink, closeDisplay, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer closeDisplay()

	table, err := font.ByName(cfg.Ticker.Font)
	if err != nil {
		return err
	}
	engine, err := ticker.New(sink, &ticker.Opts{
		Capacity:       cfg.Ticker.Capacity,
		Font:           table,
		Fallback:       cfg.Ticker.FallbackChar(),
		ResetOnMessage: cfg.Ticker.ResetOnMessage,
		Logger:         &logger,
	})
	if err != nil {
		return err
	}
	if err := engine.SetMessage(cfg.Ticker.Message); err != nil {
		return err
	}

	var poller scheduler.Poller
	if !cfg.Network.Disabled {
		status, closeStatus, err := openStatus(cfg)
		if err != nil {
			return err
		}
		defer closeStatus()

		sup, err := openNetwork(cfg, status)
		if err != nil {
			return err
		}
		if *noWait {
			log.Info().Msg("not waiting for the network")
		} else {
			log.Info().Str("ssid", cfg.Network.SSID).Msg("waiting for network")
			if err := sup.WaitForConnection(ctx); err != nil {
				return err
			}
		}
		poller = sup
	}

	return scheduler.Run(ctx, engine, poller, &scheduler.Opts{
		TickInterval: cfg.Ticker.TickInterval(),
		PollInterval: cfg.Network.PollInterval(),
		Messages:     reloadMessages(ctx),
		Logger:       &logger,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *message != "" {
		cfg.Ticker.Message = *message
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openDisplay builds the frame sink: the matrix, plus the OLED mirror when
// enabled.
func openDisplay(cfg *config.Config) (ticker.Sink, func(), error) {
	b, err := spireg.Open(cfg.Display.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("open SPI bus: %w", err)
	}
	dev, err := max7219.NewSPI(b, &max7219.Opts{
		Intensity: cfg.Display.Intensity,
		Rotated:   cfg.Display.Rotated,
	})
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	log.Info().Stringer("display", dev).Uint8("intensity", cfg.Display.Intensity).Msg("display initialized")

	closers := []func(){
		func() { b.Close() },
		func() {
			if err := dev.Halt(); err != nil {
				log.Warn().Err(err).Msg("failed to halt display")
			}
		},
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if !cfg.Mirror.Enabled {
		return dev, closeAll, nil
	}

	bus, err := i2creg.Open(cfg.Mirror.I2C)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("open I²C bus: %w", err)
	}
	closers = append(closers, func() { bus.Close() })

	oled, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("mirror: %w", err)
	}
	m, err := mirror.New(oled, &mirror.Opts{Scale: cfg.Mirror.Scale, Invert: cfg.Mirror.Invert})
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, func() { m.Halt() })
	log.Info().Stringer("mirror", m).Msg("mirror initialized")

	return ticker.Fanout{dev, m}, closeAll, nil
}

// openStatus builds the status sink: always the log, plus an indicator LED
// when configured.
func openStatus(cfg *config.Config) (supervisor.StatusSink, func(), error) {
	sinks := statuslight.Fanout{statuslight.NewLog(nil)}
	opts := &statuslight.Opts{ActiveLow: cfg.Status.ActiveLow}

	switch {
	case cfg.Status.Pin != "":
		p := gpioreg.ByName(cfg.Status.Pin)
		if p == nil {
			return nil, nil, fmt.Errorf("GPIO pin %s not found", cfg.Status.Pin)
		}
		l, err := statuslight.NewPin(p, opts)
		if err != nil {
			return nil, nil, err
		}
		return append(sinks, l), func() { l.Halt() }, nil

	case cfg.Status.GPIOChip != "":
		l, err := statuslight.RequestLine(cfg.Status.GPIOChip, cfg.Status.Line, opts)
		if err != nil {
			return nil, nil, err
		}
		return append(sinks, l), func() { l.Close() }, nil
	}
	return sinks, func() {}, nil
}

func openNetwork(cfg *config.Config, status supervisor.StatusSink) (*supervisor.Supervisor, error) {
	n := cfg.Network
	station, err := wifi.New(&wifi.Opts{
		Interface:      n.Interface,
		SSID:           n.SSID,
		PSK:            n.PSK,
		Backend:        wifi.Backend(n.Backend),
		ConnectTimeout: n.ConnectTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return supervisor.New(station, status, &supervisor.Opts{
		Window: n.Window(),
		Retry: supervisor.Backoff{
			InitialDelay: n.Retry.Initial(),
			MaxDelay:     n.Retry.Max(),
			Multiplier:   n.Retry.Multiplier,
		},
	})
}

// reloadMessages re-reads the config file on SIGHUP and forwards the message,
// still honouring -message.
func reloadMessages(ctx context.Context) <-chan string {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	out := make(chan string)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
			}
			cfg, err := loadConfig()
			if err != nil {
				log.Warn().Err(err).Msg("reload failed, keeping current message")
				continue
			}
			select {
			case out <- cfg.Ticker.Message:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
