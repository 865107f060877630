// Package scheduler runs the cooperative control loop that drives the ticker
// and the connectivity supervisor from a single goroutine.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/flavioheleno/ledticker/ticker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Defaults applied by Run.
const (
	DefaultTickInterval = 70 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Ticker is the scrolling engine, typically a *ticker.Engine.
type Ticker interface {
	Tick() error
	SetMessage(text string) error
}

// Poller is the link supervisor, typically a *supervisor.Supervisor.
type Poller interface {
	Poll()
}

// Opts is the configuration for Run.
type Opts struct {
	// TickInterval between scroll steps (default: 70ms).
	TickInterval time.Duration

	// PollInterval between link checks (default: 5s).
	PollInterval time.Duration

	// Messages replaces the ticker message. Updates are applied on the loop
	// goroutine, between ticks.
	Messages <-chan string

	// Logger (default: the zerolog global logger).
	Logger *zerolog.Logger
}

// Run drives t and p until ctx is done and returns ctx.Err(). p may be nil
// when no link is supervised. Tick and Poll errors are logged and never stop
// the loop.
func Run(ctx context.Context, t Ticker, p Poller, opts *Opts) error {
	if t == nil {
		return errors.New("scheduler: ticker required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	tickEvery := opts.TickInterval
	if tickEvery <= 0 {
		tickEvery = DefaultTickInterval
	}
	pollEvery := opts.PollInterval
	if pollEvery <= 0 {
		pollEvery = DefaultPollInterval
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	l := &loop{t: t, log: logger.With().Str("component", "scheduler").Logger()}

	tickC := time.NewTicker(tickEvery)
	defer tickC.Stop()

	// A nil channel never fires, so a missing poller costs nothing.
	var pollC <-chan time.Time
	if p != nil {
		pt := time.NewTicker(pollEvery)
		defer pt.Stop()
		pollC = pt.C
	}

	l.log.Info().Dur("tick", tickEvery).Dur("poll", pollEvery).Msg("control loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Uint64("ticks", l.ticks).Msg("control loop stopped")
			return ctx.Err()
		case msg := <-opts.Messages:
			l.setMessage(msg)
		case <-tickC.C:
			l.tick()
		case <-pollC:
			p.Poll()
		}
	}
}

// loop holds the per-run bookkeeping.
type loop struct {
	t   Ticker
	log zerolog.Logger

	ticks    uint64
	failures uint64 // Consecutive frames the display rejected
}

func (l *loop) tick() {
	l.ticks++
	err := l.t.Tick()

	var de *ticker.DisplayError
	switch {
	case err == nil:
		if l.failures > 0 {
			l.log.Info().Uint64("dropped", l.failures).Msg("display recovered")
			l.failures = 0
		}
	case errors.Is(err, ticker.ErrNoMessage):
		l.log.Debug().Msg("nothing to scroll")
	case errors.As(err, &de):
		// Only the first failure of a run is worth a warning at 70ms a tick.
		if l.failures == 0 {
			l.log.Warn().Err(de.Err).Msg("display write failed, skipping frames")
		} else {
			l.log.Debug().Err(de.Err).Uint64("dropped", l.failures).Msg("frame skipped")
		}
		l.failures++
	default:
		l.log.Error().Err(err).Msg("tick failed")
	}
}

func (l *loop) setMessage(msg string) {
	if err := l.t.SetMessage(msg); err != nil {
		l.log.Warn().Err(err).Int("len", len(msg)).Msg("message rejected")
		return
	}
	l.log.Info().Int("len", len(msg)).Msg("message updated")
}
