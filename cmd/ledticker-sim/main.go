// Command ledticker-sim runs the scrolling ticker against a simulated LED
// matrix, in a desktop window or in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/flavioheleno/ledticker/bitmap"
	"github.com/flavioheleno/ledticker/font"
	"github.com/flavioheleno/ledticker/logging"
	"github.com/flavioheleno/ledticker/sim"
	"github.com/flavioheleno/ledticker/ticker"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		message  string
		fontName string
		speed    time.Duration
		fallback string
		reset    bool
		cfg      sim.HeadlessConfig
		headless bool
	)
	flag.StringVar(&message, "message", "HELLO, WORLD!", "Message to scroll.")
	flag.StringVar(&fontName, "font", "basic", "Font table: basic, picopixel or proggy.")
	flag.DurationVar(&speed, "speed", 70*time.Millisecond, "Time per scroll step.")
	flag.StringVar(&fallback, "fallback", "?", "Character drawn for glyphs missing from the font.")
	flag.BoolVar(&reset, "reset", false, "Restart the scroll when the message changes.")
	flag.BoolVar(&headless, "headless", false, "Render in the terminal instead of a window.")
	flag.IntVar(&cfg.Hz, "hz", sim.TPS, "Step rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N steps in headless mode (0 = run forever).")
	flag.Parse()

	logging.InitLogger("ledticker-sim", "")

	table, err := font.ByName(fontName)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid font")
	}
	if len(fallback) != 1 {
		log.Fatal().Str("fallback", fallback).Msg("fallback must be a single character")
	}

	panel := sim.NewPanel()
	var sink ticker.Sink = panel
	if headless {
		sink = ticker.Fanout{panel, ticker.SinkFunc(printFrame)}
	}

	engine, err := ticker.New(sink, &ticker.Opts{
		Font:           table,
		Fallback:       fallback[0],
		ResetOnMessage: reset,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ticker")
	}
	if err := engine.SetMessage(message); err != nil {
		log.Fatal().Err(err).Msg("invalid message")
	}

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		step := sim.Every(cfg.Hz, speed, engine.Tick)
		if err := sim.RunHeadless(ctx, step, cfg); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("simulation failed")
		}
		return
	}

	step := sim.Every(sim.TPS, speed, engine.Tick)
	if err := sim.RunWindow(panel, "ledticker: "+message, step); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

// printFrame redraws the frame in place at the top of the terminal.
func printFrame(f bitmap.Frame) error {
	_, err := fmt.Fprintf(os.Stdout, "\033[H\033[2J%s\n", f)
	return err
}
