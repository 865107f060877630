// Package supervisor keeps a single wireless link alive.
//
// A Supervisor starts pessimistic, in the Disconnected state, and reports
// Connected only after the link was observed up. While the link is down it
// issues at most one reconnect request per hysteresis window, no matter how
// often it is polled, and keeps trying for as long as the process runs.
//
// Poll is meant to be called periodically from the same control loop that
// drives the display. WaitForConnection blocks and belongs to startup only.
// A Supervisor is not safe for concurrent use.
package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultWindow is the minimum time between reconnect requests while the
// link stays down.
const DefaultWindow = 30 * time.Second

// requestErrorPause is the shortest wait after a rejected connect request in
// WaitForConnection.
const requestErrorPause = time.Second

// Status is the link state reported to a StatusSink.
type Status int

const (
	Disconnected Status = iota
	Connected
)

func (s Status) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Link is the network driver the supervisor controls.
type Link interface {
	// IsLinked reports whether the interface is associated and has an
	// address. Query failures must be reported as false.
	IsLinked() bool
	// BeginConnect requests a (re)connection without waiting for it.
	BeginConnect() error
	// WaitUp blocks until the interface is up, the driver gives up, or ctx
	// is done.
	WaitUp(ctx context.Context) error
}

// inFlighter is implemented by links that can tell whether a connection
// attempt is still running.
type inFlighter interface {
	InFlight() bool
}

// StatusSink receives status transitions, for instance to drive an indicator
// light. It must not block.
type StatusSink interface {
	SetStatus(Status)
}

// StatusFunc adapts a function to the StatusSink interface.
type StatusFunc func(Status)

// SetStatus calls fn(s).
func (fn StatusFunc) SetStatus(s Status) {
	fn(s)
}

// Opts is the configuration for a Supervisor.
type Opts struct {
	// Window between reconnect requests while the link is down
	// (default: 30s).
	Window time.Duration

	// Retry paces the attempts made by WaitForConnection. The zero value
	// retries immediately.
	Retry Backoff

	// Now returns the current time (default: time.Now).
	Now func() time.Time

	// Logger (default: the zerolog global logger).
	Logger *zerolog.Logger
}

// Supervisor tracks link state and drives reconnection.
type Supervisor struct {
	link   Link
	sink   StatusSink
	window time.Duration
	retry  Backoff
	now    func() time.Time
	log    zerolog.Logger

	status Status
	// lostAt is the time the link was last seen lost or last retried; it is
	// meaningful only while Disconnected.
	lostAt   time.Time
	attempts uint64
}

// New creates a Supervisor in the Disconnected state.
//
// sink may be nil when nobody needs status updates. opts can be nil to use
// defaults.
func New(link Link, sink StatusSink, opts *Opts) (*Supervisor, error) {
	if link == nil {
		return nil, errors.New("supervisor: link required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Window < 0 {
		return nil, errors.New("supervisor: window must be >= 0")
	}

	s := &Supervisor{
		link:   link,
		sink:   sink,
		window: opts.Window,
		retry:  opts.Retry,
		now:    opts.Now,
		log:    log.Logger,
		status: Disconnected,
	}
	if s.window == 0 {
		s.window = DefaultWindow
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	s.log = s.log.With().Str("component", "supervisor").Logger()
	s.lostAt = s.now()
	return s, nil
}

// Status returns the current link state.
func (s *Supervisor) Status() Status {
	return s.status
}

// LostAt returns when the link was last seen lost or last retried. ok is
// false while Connected.
func (s *Supervisor) LostAt() (t time.Time, ok bool) {
	if s.status == Connected {
		return time.Time{}, false
	}
	return s.lostAt, true
}

// Attempts returns how many connection requests were issued so far.
func (s *Supervisor) Attempts() uint64 {
	return s.attempts
}

// Poll samples the link once and reacts to it. It never blocks on the
// network: at most one BeginConnect is issued per call.
func (s *Supervisor) Poll() {
	if s.link.IsLinked() {
		if s.status != Connected {
			s.markConnected()
		}
		return
	}

	now := s.now()
	if s.status == Connected {
		s.log.Warn().Msg("link lost")
	} else if now.Sub(s.lostAt) <= s.window {
		return
	} else if s.inFlight() {
		s.log.Debug().Msg("connection attempt still in flight, deferring")
		return
	}

	s.status = Disconnected
	s.lostAt = now
	s.notify(Disconnected)
	s.beginConnect()
}

// WaitForConnection blocks until the link is up. If it already is, it returns
// at once without requesting a connection. Otherwise it keeps requesting one
// and waiting for the interface until it succeeds or ctx is done, in which
// case ctx.Err() is returned.
func (s *Supervisor) WaitForConnection(ctx context.Context) error {
	if s.link.IsLinked() {
		if s.status != Connected {
			s.markConnected()
		}
		return nil
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.lostAt = s.now()
		if s.inFlight() {
			// An earlier request outlived its wait; let it settle instead of
			// asking again.
			s.log.Debug().Msg("connection attempt still in flight, waiting for it")
		} else if err := s.beginConnect(); err != nil {
			if err := sleep(ctx, max(s.retry.Delay(attempt), requestErrorPause)); err != nil {
				return err
			}
			continue
		}

		err := s.link.WaitUp(ctx)
		if err == nil && s.link.IsLinked() {
			s.markConnected()
			return nil
		}
		if err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("link did not come up")
		}

		if err := sleep(ctx, s.retry.Delay(attempt)); err != nil {
			return err
		}
	}
}

func (s *Supervisor) inFlight() bool {
	f, ok := s.link.(inFlighter)
	return ok && f.InFlight()
}

func (s *Supervisor) beginConnect() error {
	s.attempts++
	s.log.Info().Uint64("attempt", s.attempts).Msg("requesting connection")
	if err := s.link.BeginConnect(); err != nil {
		s.log.Warn().Err(err).Msg("connect request failed")
		return err
	}
	return nil
}

func (s *Supervisor) markConnected() {
	s.status = Connected
	s.lostAt = time.Time{}
	s.log.Info().Msg("link up")
	s.notify(Connected)
}

func (s *Supervisor) notify(st Status) {
	if s.sink != nil {
		s.sink.SetStatus(st)
	}
}

// sleep waits for d or until ctx is done. A non-positive d only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
