package statuslight

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/flavioheleno/ledticker/supervisor"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPin(t *testing.T) {
	tests := []struct {
		name      string
		activeLow bool
		off, lit  gpio.Level
	}{
		{"active high", false, gpio.Low, gpio.High},
		{"active low", true, gpio.High, gpio.Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &gpiotest.Pin{N: "GPIO17", Num: 17, L: !tt.off}
			l, err := NewPin(p, &Opts{ActiveLow: tt.activeLow})
			if err != nil {
				t.Fatal(err)
			}
			if p.L != tt.off {
				t.Errorf("after NewPin level = %v, want %v", p.L, tt.off)
			}

			l.SetStatus(supervisor.Connected)
			if p.L != tt.lit {
				t.Errorf("Connected level = %v, want %v", p.L, tt.lit)
			}
			l.SetStatus(supervisor.Disconnected)
			if p.L != tt.off {
				t.Errorf("Disconnected level = %v, want %v", p.L, tt.off)
			}

			l.SetStatus(supervisor.Connected)
			if err := l.Halt(); err != nil {
				t.Fatal(err)
			}
			if p.L != tt.off {
				t.Errorf("after Halt level = %v, want %v", p.L, tt.off)
			}
		})
	}
}

func TestPinString(t *testing.T) {
	l, err := NewPin(&gpiotest.Pin{N: "GPIO17", Num: 17}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "statuslight.Pin{GPIO17(17)}"
	if got := l.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewPinNil(t *testing.T) {
	if _, err := NewPin(nil, nil); err == nil {
		t.Error("NewPin(nil) should fail")
	}
}

// brokenPin fails every write.
type brokenPin struct {
	gpiotest.Pin
}

func (p *brokenPin) Out(gpio.Level) error {
	return errors.New("pin unexported")
}

func TestPinFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	p := &gpiotest.Pin{N: "GPIO17", Num: 17}
	l, err := NewPin(p, &Opts{Logger: &logger})
	if err != nil {
		t.Fatal(err)
	}
	// Swap in a failing pin after construction.
	l.p = &brokenPin{}

	l.SetStatus(supervisor.Connected)
	if !strings.Contains(buf.String(), "pin unexported") {
		t.Errorf("log = %q, want the pin error", buf.String())
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	l := NewLog(&logger)

	l.SetStatus(supervisor.Disconnected)
	l.SetStatus(supervisor.Connected)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}
	wants := []string{`"level":"warn"`, `"status":"disconnected"`}
	for _, w := range wants {
		if !strings.Contains(lines[0], w) {
			t.Errorf("line %q does not contain %s", lines[0], w)
		}
	}
	wants = []string{`"level":"info"`, `"status":"connected"`, `"component":"statuslight"`}
	for _, w := range wants {
		if !strings.Contains(lines[1], w) {
			t.Errorf("line %q does not contain %s", lines[1], w)
		}
	}
}

func TestFanout(t *testing.T) {
	var got [2][]supervisor.Status
	f := Fanout{
		supervisor.StatusFunc(func(s supervisor.Status) { got[0] = append(got[0], s) }),
		nil,
		supervisor.StatusFunc(func(s supervisor.Status) { got[1] = append(got[1], s) }),
	}

	f.SetStatus(supervisor.Connected)
	f.SetStatus(supervisor.Disconnected)

	for i, g := range got {
		if len(g) != 2 || g[0] != supervisor.Connected || g[1] != supervisor.Disconnected {
			t.Errorf("sink %d got %v", i, g)
		}
	}
}
