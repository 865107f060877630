// Package wifi is a Linux station-mode driver for a single WPA2-Personal
// access point.
//
// It implements supervisor.Link on top of the host's network manager:
// association is requested through nmcli (NetworkManager) or wpa_cli
// (wpa_supplicant), and link state is read from the kernel interface table.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Backend selects the tool used to request association.
type Backend string

const (
	// NMCLI asks NetworkManager to join SSID with PSK.
	NMCLI Backend = "nmcli"
	// WPACLI asks an already configured wpa_supplicant to reassociate.
	WPACLI Backend = "wpa_cli"
)

// Defaults applied by New.
const (
	DefaultInterface      = "wlan0"
	DefaultConnectTimeout = 20 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// ErrInFlight is returned by BeginConnect while an earlier request is still
// running.
var ErrInFlight = errors.New("wifi: connection attempt already in flight")

// Opts is the configuration for a Station.
type Opts struct {
	// Interface name (default: wlan0).
	Interface string

	// SSID and PSK of the access point. Required by the nmcli backend.
	SSID string
	PSK  string

	// Backend (default: nmcli).
	Backend Backend

	// ConnectTimeout bounds both the association command and WaitUp
	// (default: 20s).
	ConnectTimeout time.Duration

	// PollInterval between interface checks in WaitUp (default: 500ms).
	PollInterval time.Duration

	// Runner executes the backend command (default: ExecRunner).
	Runner CommandRunner

	// Logger (default: the zerolog global logger).
	Logger *zerolog.Logger
}

// ifaceFunc reports the flags and addresses of a network interface.
type ifaceFunc func(name string) (net.Flags, []net.Addr, error)

// Station drives one wireless interface. It is safe for concurrent use:
// association commands run on their own goroutine.
type Station struct {
	iface        string
	ssid         string
	psk          string
	backend      Backend
	timeout      time.Duration
	pollInterval time.Duration
	runner       CommandRunner
	lookup       ifaceFunc
	log          zerolog.Logger

	mu       sync.Mutex
	inFlight bool
	lastErr  error         // Result of the last finished command
	done     chan struct{} // Closed when the running command finishes
}

// New creates a Station. opts can be nil to use defaults, but the nmcli
// backend needs an SSID.
func New(opts *Opts) (*Station, error) {
	if opts == nil {
		opts = &Opts{}
	}

	s := &Station{
		iface:        opts.Interface,
		ssid:         opts.SSID,
		psk:          opts.PSK,
		backend:      opts.Backend,
		timeout:      opts.ConnectTimeout,
		pollInterval: opts.PollInterval,
		runner:       opts.Runner,
		lookup:       interfaceState,
		log:          log.Logger,
	}
	if s.iface == "" {
		s.iface = DefaultInterface
	}
	if s.backend == "" {
		s.backend = NMCLI
	}
	if s.timeout <= 0 {
		s.timeout = DefaultConnectTimeout
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	if s.runner == nil {
		s.runner = ExecRunner{}
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}

	switch s.backend {
	case NMCLI:
		if s.ssid == "" {
			return nil, errors.New("wifi: ssid required by nmcli backend")
		}
	case WPACLI:
	default:
		return nil, fmt.Errorf("wifi: unknown backend %q", s.backend)
	}

	s.log = s.log.With().Str("component", "wifi").Str("iface", s.iface).Logger()
	return s, nil
}

// Interface returns the interface name.
func (s *Station) Interface() string {
	return s.iface
}

// IsLinked reports whether the interface is up and holds a routable unicast
// address. Query failures count as not linked.
func (s *Station) IsLinked() bool {
	flags, addrs, err := s.lookup(s.iface)
	if err != nil {
		s.log.Debug().Err(err).Msg("interface query failed")
		return false
	}
	if flags&net.FlagUp == 0 {
		return false
	}
	for _, a := range addrs {
		if ip := addrIP(a); ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// BeginConnect starts the backend association command and returns without
// waiting for it. It fails with ErrInFlight while a previous command runs.
func (s *Station) BeginConnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrInFlight
	}

	name, args := s.command()
	s.inFlight = true
	s.lastErr = nil
	done := make(chan struct{})
	s.done = done

	s.log.Info().Str("backend", string(s.backend)).Str("ssid", s.ssid).Msg("requesting association")
	go s.run(done, name, args)
	return nil
}

func (s *Station) run(done chan struct{}, name string, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, stderr, err := s.runner.Run(ctx, name, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			err = fmt.Errorf("wifi: %s: %w: %s", name, err, msg)
		} else {
			err = fmt.Errorf("wifi: %s: %w", name, err)
		}
		s.log.Warn().Err(err).Msg("association command failed")
	}

	s.mu.Lock()
	s.inFlight = false
	s.lastErr = err
	s.mu.Unlock()
	close(done)
}

// command builds the backend invocation. The PSK only ever reaches the
// process arguments, never the log.
func (s *Station) command() (string, []string) {
	switch s.backend {
	case WPACLI:
		return "wpa_cli", []string{"-i", s.iface, "reconnect"}
	default:
		args := []string{"device", "wifi", "connect", s.ssid}
		if s.psk != "" {
			args = append(args, "password", s.psk)
		}
		return "nmcli", append(args, "ifname", s.iface)
	}
}

// InFlight reports whether an association command is still running.
func (s *Station) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// WaitUp polls the interface until it is linked. It gives up after the
// connect timeout, when the association command fails, or when ctx is done.
func (s *Station) WaitUp(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if s.IsLinked() {
			s.logUp()
			return nil
		}

		s.mu.Lock()
		done, inFlight, lastErr := s.done, s.inFlight, s.lastErr
		s.mu.Unlock()
		if !inFlight && lastErr != nil {
			return lastErr
		}

		// A finished command wakes us early so its error is not lost to the
		// poll interval.
		var finished <-chan struct{}
		if inFlight {
			finished = done
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("wifi: %s not up after %s: %w", s.iface, s.timeout, ctx.Err())
			}
			return ctx.Err()
		case <-finished:
		case <-ticker.C:
		}
	}
}

// logUp records the addresses the interface came up with.
func (s *Station) logUp() {
	_, addrs, err := s.lookup(s.iface)
	if err != nil {
		return
	}
	ips := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.String())
	}
	ev := s.log.Debug().Strs("addrs", ips)
	if host, err := os.Hostname(); err == nil {
		ev = ev.Str("hostname", host)
	}
	ev.Msg("interface up")
}

func (s *Station) String() string {
	return fmt.Sprintf("wifi.Station{%s, %s}", s.iface, s.backend)
}

// interfaceState reads an interface from the kernel.
func interfaceState(name string) (net.Flags, []net.Addr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0, nil, fmt.Errorf("wifi: %w", err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return 0, nil, fmt.Errorf("wifi: %s addresses: %w", name, err)
	}
	return ifi.Flags, addrs, nil
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
