// Package statuslight shows the link state of a supervisor.Supervisor on
// indicator LEDs and in the log.
//
// Every sink lights up on Connected and goes dark on Disconnected. Sinks are
// fire-and-forget: output failures are logged, never returned.
package statuslight

import (
	"fmt"

	"github.com/flavioheleno/ledticker/supervisor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
)

// Opts is the configuration shared by the GPIO sinks.
type Opts struct {
	// ActiveLow lights the LED by driving the output low.
	ActiveLow bool

	// Logger (default: the zerolog global logger).
	Logger *zerolog.Logger
}

func (o *Opts) logger(kind string) zerolog.Logger {
	l := log.Logger
	if o != nil && o.Logger != nil {
		l = *o.Logger
	}
	return l.With().Str("component", "statuslight").Str("sink", kind).Logger()
}

// Pin drives an indicator LED through a periph GPIO pin.
type Pin struct {
	p         gpio.PinOut
	activeLow bool
	log       zerolog.Logger
}

// NewPin creates a Pin sink and turns the LED off. opts can be nil to use
// defaults.
func NewPin(p gpio.PinOut, opts *Opts) (*Pin, error) {
	if p == nil {
		return nil, fmt.Errorf("statuslight: pin required")
	}
	l := &Pin{p: p, log: opts.logger("pin")}
	if opts != nil {
		l.activeLow = opts.ActiveLow
	}
	if err := p.Out(l.level(false)); err != nil {
		return nil, fmt.Errorf("statuslight: %s: %w", p, err)
	}
	return l, nil
}

func (l *Pin) level(lit bool) gpio.Level {
	return gpio.Level(lit != l.activeLow)
}

// SetStatus implements supervisor.StatusSink.
func (l *Pin) SetStatus(s supervisor.Status) {
	if err := l.p.Out(l.level(s == supervisor.Connected)); err != nil {
		l.log.Warn().Err(err).Str("pin", l.p.String()).Stringer("status", s).Msg("failed to drive indicator")
	}
}

// Halt turns the LED off.
func (l *Pin) Halt() error {
	return l.p.Out(l.level(false))
}

func (l *Pin) String() string {
	return fmt.Sprintf("statuslight.Pin{%s}", l.p)
}

// Line drives an indicator LED through a Linux GPIO character device line.
type Line struct {
	line *gpiocdev.Line
	name string
	log  zerolog.Logger
}

// RequestLine requests offset on chip (for example "gpiochip0") as an output
// with the LED off. opts can be nil to use defaults.
func RequestLine(chip string, offset int, opts *Opts) (*Line, error) {
	reqOpts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer("ledticker"),
		gpiocdev.AsOutput(0),
	}
	if opts != nil && opts.ActiveLow {
		reqOpts = append(reqOpts, gpiocdev.AsActiveLow)
	}

	line, err := gpiocdev.RequestLine(chip, offset, reqOpts...)
	if err != nil {
		return nil, fmt.Errorf("statuslight: request %s:%d: %w", chip, offset, err)
	}
	return &Line{
		line: line,
		name: fmt.Sprintf("%s:%d", chip, offset),
		log:  opts.logger("line"),
	}, nil
}

// SetStatus implements supervisor.StatusSink. Active-low wiring is handled
// by the kernel.
func (l *Line) SetStatus(s supervisor.Status) {
	v := 0
	if s == supervisor.Connected {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		l.log.Warn().Err(err).Str("line", l.name).Stringer("status", s).Msg("failed to drive indicator")
	}
}

// Close turns the LED off and releases the line.
func (l *Line) Close() error {
	if err := l.line.SetValue(0); err != nil {
		l.log.Debug().Err(err).Str("line", l.name).Msg("failed to turn indicator off")
	}
	return l.line.Close()
}

func (l *Line) String() string {
	return fmt.Sprintf("statuslight.Line{%s}", l.name)
}

// Log writes every status change to a logger.
type Log struct {
	log zerolog.Logger
}

// NewLog creates a Log sink. logger can be nil to use the global logger.
func NewLog(logger *zerolog.Logger) *Log {
	return &Log{log: (&Opts{Logger: logger}).logger("log")}
}

// SetStatus implements supervisor.StatusSink.
func (l *Log) SetStatus(s supervisor.Status) {
	ev := l.log.Info()
	if s != supervisor.Connected {
		ev = l.log.Warn()
	}
	ev.Stringer("status", s).Msg("link status changed")
}

// Fanout forwards every status change to all sinks in order.
type Fanout []supervisor.StatusSink

// SetStatus implements supervisor.StatusSink.
func (f Fanout) SetStatus(s supervisor.Status) {
	for _, sink := range f {
		if sink != nil {
			sink.SetStatus(s)
		}
	}
}
