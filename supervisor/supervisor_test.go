package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flavioheleno/ledticker/wifi"
	"github.com/rs/zerolog"
)

type fakeLink struct {
	linked   bool
	inFlight bool

	connects   int
	connectErr error

	// upAfter brings the link up on WaitUp once this many connects happened;
	// zero never brings it up.
	upAfter   int
	onConnect func(n int)
}

func (l *fakeLink) IsLinked() bool { return l.linked }

func (l *fakeLink) BeginConnect() error {
	l.connects++
	if l.onConnect != nil {
		l.onConnect(l.connects)
	}
	return l.connectErr
}

func (l *fakeLink) WaitUp(ctx context.Context) error {
	if l.upAfter > 0 && l.connects >= l.upAfter {
		l.linked = true
		return nil
	}
	return errors.New("wifi: timed out waiting for interface")
}

type flightLink struct {
	*fakeLink
}

func (l flightLink) InFlight() bool { return l.inFlight }

type recorder struct {
	statuses []Status
}

func (r *recorder) SetStatus(s Status) { r.statuses = append(r.statuses, s) }

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSupervisor(t *testing.T, link Link, sink StatusSink, c *clock) *Supervisor {
	t.Helper()
	nop := zerolog.Nop()
	s, err := New(link, sink, &Opts{Now: c.now, Logger: &nop})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("New(nil link) should fail")
	}
	if _, err := New(&fakeLink{}, nil, &Opts{Window: -time.Second}); err == nil {
		t.Error("New(negative window) should fail")
	}

	s, err := New(&fakeLink{}, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.window != DefaultWindow {
		t.Errorf("window = %v, want %v", s.window, DefaultWindow)
	}
}

func TestInitialStateIsDisconnected(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	s := newSupervisor(t, &fakeLink{}, nil, c)

	if s.Status() != Disconnected {
		t.Errorf("Status() = %v, want disconnected", s.Status())
	}
	lostAt, ok := s.LostAt()
	if !ok || !lostAt.Equal(c.t) {
		t.Errorf("LostAt() = (%v, %v), want (%v, true)", lostAt, ok, c.t)
	}
}

func TestPollDebouncesReconnects(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{linked: true}
	rec := &recorder{}
	s := newSupervisor(t, link, rec, c)

	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatal(err)
	}
	link.linked = false

	var attemptsAt []int
	for sec := 0; sec <= 65; sec++ {
		before := link.connects
		s.Poll()
		if link.connects != before {
			attemptsAt = append(attemptsAt, sec)
		}
		c.advance(time.Second)
	}

	want := []int{0, 31, 62}
	if len(attemptsAt) != len(want) {
		t.Fatalf("connect attempts at %v, want %v", attemptsAt, want)
	}
	for i := range want {
		if attemptsAt[i] != want[i] {
			t.Errorf("attempt %d at t=%ds, want t=%ds", i, attemptsAt[i], want[i])
		}
	}
	if s.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", s.Attempts())
	}
}

func TestPollFrequencyDoesNotMatter(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{linked: true}
	s := newSupervisor(t, link, nil, c)
	s.Poll()
	link.linked = false

	// Poll every 10ms for 65s.
	for i := 0; i <= 6500; i++ {
		s.Poll()
		c.advance(10 * time.Millisecond)
	}
	if link.connects != 3 {
		t.Errorf("connects = %d, want 3", link.connects)
	}
}

func TestPollFromInitialStateWaitsOneWindow(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{}
	s := newSupervisor(t, link, nil, c)

	for sec := 0; sec <= 30; sec++ {
		s.Poll()
		c.advance(time.Second)
	}
	if link.connects != 0 {
		t.Fatalf("connects = %d within the first window, want 0", link.connects)
	}
	s.Poll()
	if link.connects != 1 {
		t.Errorf("connects = %d after the window, want 1", link.connects)
	}
}

func TestPollLinkLostNotifiesAndConnects(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{linked: true}
	rec := &recorder{}
	s := newSupervisor(t, link, rec, c)

	s.Poll()
	link.linked = false
	c.advance(5 * time.Second)
	s.Poll()

	if s.Status() != Disconnected {
		t.Errorf("Status() = %v, want disconnected", s.Status())
	}
	lostAt, ok := s.LostAt()
	if !ok || !lostAt.Equal(c.t) {
		t.Errorf("LostAt() = (%v, %v), want (%v, true)", lostAt, ok, c.t)
	}
	if link.connects != 1 {
		t.Errorf("connects = %d, want 1", link.connects)
	}
	want := []Status{Connected, Disconnected}
	if len(rec.statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", rec.statuses, want)
	}
	for i := range want {
		if rec.statuses[i] != want[i] {
			t.Errorf("status %d = %v, want %v", i, rec.statuses[i], want[i])
		}
	}
}

func TestPollRecovery(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{}
	rec := &recorder{}
	s := newSupervisor(t, link, rec, c)

	s.Poll()
	link.linked = true
	s.Poll()

	if s.Status() != Connected {
		t.Errorf("Status() = %v, want connected", s.Status())
	}
	if _, ok := s.LostAt(); ok {
		t.Error("LostAt() ok = true while connected")
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != Connected {
		t.Errorf("statuses = %v, want [connected]", rec.statuses)
	}

	// Staying up is idempotent.
	s.Poll()
	s.Poll()
	if len(rec.statuses) != 1 {
		t.Errorf("statuses = %v after repeated polls, want a single entry", rec.statuses)
	}
}

func TestPollConnectFailureIsAbsorbed(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{linked: true, connectErr: errors.New("wifi: nmcli: exit status 10")}
	s := newSupervisor(t, link, nil, c)

	s.Poll()
	link.linked = false
	s.Poll()
	c.advance(DefaultWindow + time.Second)
	s.Poll()

	if link.connects != 2 {
		t.Errorf("connects = %d, want 2", link.connects)
	}
	if s.Status() != Disconnected {
		t.Errorf("Status() = %v, want disconnected", s.Status())
	}
}

func TestPollDefersWhileAttemptInFlight(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	base := &fakeLink{linked: true}
	link := flightLink{base}
	s := newSupervisor(t, link, nil, c)

	s.Poll()
	base.linked = false
	s.Poll() // lost: first attempt
	base.inFlight = true

	c.advance(DefaultWindow + time.Second)
	s.Poll()
	if base.connects != 1 {
		t.Fatalf("connects = %d while in flight, want 1", base.connects)
	}

	base.inFlight = false
	s.Poll()
	if base.connects != 2 {
		t.Errorf("connects = %d after attempt finished, want 2", base.connects)
	}
}

func TestWaitForConnectionAlreadyLinked(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{linked: true}
	rec := &recorder{}
	s := newSupervisor(t, link, rec, c)

	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatalf("WaitForConnection() error = %v", err)
	}
	if link.connects != 0 {
		t.Errorf("connects = %d, want 0", link.connects)
	}
	if s.Status() != Connected {
		t.Errorf("Status() = %v, want connected", s.Status())
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != Connected {
		t.Errorf("statuses = %v, want [connected]", rec.statuses)
	}

	// A second call changes nothing.
	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.statuses) != 1 {
		t.Errorf("statuses = %v, want a single entry", rec.statuses)
	}
}

func TestWaitForConnectionRetries(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{upAfter: 3}
	rec := &recorder{}
	s := newSupervisor(t, link, rec, c)

	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatalf("WaitForConnection() error = %v", err)
	}
	if link.connects != 3 {
		t.Errorf("connects = %d, want 3", link.connects)
	}
	if s.Status() != Connected {
		t.Errorf("Status() = %v, want connected", s.Status())
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != Connected {
		t.Errorf("statuses = %v, want [connected]", rec.statuses)
	}
}

func TestWaitForConnectionRetriesAfterConnectError(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	link := &fakeLink{upAfter: 2}
	link.onConnect = func(n int) {
		if n == 1 {
			link.connectErr = errors.New("wifi: busy")
		} else {
			link.connectErr = nil
		}
	}
	s := newSupervisor(t, link, nil, c)

	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatalf("WaitForConnection() error = %v", err)
	}
	if link.connects != 2 {
		t.Errorf("connects = %d, want 2", link.connects)
	}
}

func TestWaitForConnectionWaitsForInFlightAttempt(t *testing.T) {
	base := &fakeLink{inFlight: true, upAfter: 1}
	link := flightLink{base}
	s := newSupervisor(t, link, nil, &clock{t: time.Unix(1700000000, 0)})

	// WaitUp brings the link up once the pending request lands.
	base.connects = 1
	if err := s.WaitForConnection(context.Background()); err != nil {
		t.Fatalf("WaitForConnection() error = %v", err)
	}
	if base.connects != 1 {
		t.Errorf("connects = %d, want no new request while one is in flight", base.connects)
	}
	if s.Attempts() != 0 {
		t.Errorf("Attempts() = %d, want 0", s.Attempts())
	}
}

// lingeringRunner outlives its deadline, like a command that is slow to be
// killed and reaped.
type lingeringRunner struct {
	linger time.Duration
}

func (r lingeringRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	<-ctx.Done()
	time.Sleep(r.linger)
	return nil, nil, ctx.Err()
}

func TestWaitForConnectionSlowCommandDoesNotSpin(t *testing.T) {
	nop := zerolog.Nop()
	station, err := wifi.New(&wifi.Opts{
		Interface:      "ledticker-test0",
		SSID:           "home",
		ConnectTimeout: 50 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		Runner:         lingeringRunner{linger: 30 * time.Millisecond},
		Logger:         &nop,
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(station, nil, &Opts{Logger: &nop})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := s.WaitForConnection(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForConnection() error = %v, want context.DeadlineExceeded", err)
	}
	// Each request holds the station for about 80ms.
	if n := s.Attempts(); n == 0 || n > 10 {
		t.Errorf("Attempts() = %d, want a handful", n)
	}
}

func TestWaitForConnectionCancel(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link := &fakeLink{}
	link.onConnect = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	s := newSupervisor(t, link, nil, c)

	err := s.WaitForConnection(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitForConnection() error = %v, want context.Canceled", err)
	}
	if link.connects != 3 {
		t.Errorf("connects = %d, want 3", link.connects)
	}
	if s.Status() != Disconnected {
		t.Errorf("Status() = %v, want disconnected", s.Status())
	}
}

func TestWaitForConnectionBackoffHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	nop := zerolog.Nop()
	s, err := New(&fakeLink{}, nil, &Opts{
		Retry:  Backoff{InitialDelay: time.Hour},
		Logger: &nop,
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	err = s.WaitForConnection(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForConnection() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("WaitForConnection() took %v, want prompt return", elapsed)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 250 * time.Millisecond},
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, time.Second},
		{6, 5 * time.Second},
		{1000, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	if got := (Backoff{}).Delay(4); got != 0 {
		t.Errorf("zero Backoff Delay(4) = %v, want 0", got)
	}
	if got := (Backoff{InitialDelay: time.Second}).Delay(4); got != time.Second {
		t.Errorf("flat Backoff Delay(4) = %v, want 1s", got)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{Connected, "connected"},
		{Disconnected, "disconnected"},
		{Status(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
