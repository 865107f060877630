// Package ticker composes a text message into a stream of 8x8 frames that
// scroll one pixel column per tick, ticker-tape style.
//
// Each tick overlays two glyphs: the character leaving the panel on the left
// and the character entering from the right. After eight ticks the incoming
// character is fully visible and the cursor moves on to the next one. A space
// is appended to every message so the end and the repeat are visually apart.
//
// An Engine does not schedule itself; the caller invokes Tick at the desired
// scroll speed. It is not safe for concurrent use.
package ticker

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/ledticker/bitmap"
	"github.com/flavioheleno/ledticker/font"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultCapacity is the buffer size used when Opts.Capacity is zero. One
// byte of it is reserved for the trailing separator.
const DefaultCapacity = 100

var (
	// ErrEmptyMessage is returned by SetMessage for a zero length message.
	ErrEmptyMessage = errors.New("ticker: empty message")
	// ErrMessageTooLong is returned by SetMessage when the message plus its
	// separator does not fit the buffer.
	ErrMessageTooLong = errors.New("ticker: message too long")
	// ErrNoMessage is returned by Tick before any message was set.
	ErrNoMessage = errors.New("ticker: no message")
)

// DisplayError reports a frame the sink failed to show. The scroll position
// still advances, so the next tick carries on with the animation.
type DisplayError struct {
	Frame bitmap.Frame
	Err   error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("ticker: write frame: %v", e.Err)
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}

// Sink receives composited frames.
type Sink interface {
	WriteFrame(f bitmap.Frame) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(f bitmap.Frame) error

// WriteFrame calls fn(f).
func (fn SinkFunc) WriteFrame(f bitmap.Frame) error {
	return fn(f)
}

// Opts is the configuration for an Engine.
type Opts struct {
	// Capacity of the message buffer in bytes (default: 100). A message may
	// use at most Capacity-1 bytes.
	Capacity int

	// Font used to render characters (default: font.Basic).
	Font font.Table

	// Fallback is rendered for characters missing from Font (default: '?').
	Fallback byte

	// ResetOnMessage rewinds the scroll to the start of the new message on
	// every SetMessage. When false the scroll continues from its current
	// position.
	ResetOnMessage bool

	// Logger (default: the zerolog global logger).
	Logger *zerolog.Logger
}

// Cursor is a scroll position: the character being revealed and how many
// pixel columns of it are already visible.
type Cursor struct {
	Index    int
	SubShift int
}

// Engine owns a message buffer and a scroll cursor.
type Engine struct {
	sink     Sink
	font     font.Table
	fallback byte
	reset    bool
	log      zerolog.Logger

	buf   []byte
	index int
	// shift carries over between ticks and reaches 8 after the last column
	// of a character; the wrap happens at the start of the next tick.
	shift uint
}

// New creates an Engine writing frames to sink.
//
// opts can be nil to use defaults.
func New(sink Sink, opts *Opts) (*Engine, error) {
	if sink == nil {
		return nil, errors.New("ticker: sink required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 2 {
		return nil, errors.New("ticker: capacity must be at least 2")
	}

	e := &Engine{
		sink:     sink,
		font:     opts.Font,
		fallback: opts.Fallback,
		reset:    opts.ResetOnMessage,
		log:      log.Logger,
		buf:      make([]byte, 0, capacity),
	}
	if e.font == nil {
		e.font = font.Basic
	}
	if e.fallback == 0 {
		e.fallback = font.DefaultFallback
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	e.log = e.log.With().Str("component", "ticker").Logger()
	return e, nil
}

// Capacity returns the size of the message buffer.
func (e *Engine) Capacity() int {
	return cap(e.buf)
}

// SetMessage replaces the message. A single space is appended as separator.
func (e *Engine) SetMessage(text string) error {
	if len(text) == 0 {
		return ErrEmptyMessage
	}
	if len(text) > cap(e.buf)-1 {
		return ErrMessageTooLong
	}

	e.buf = append(e.buf[:0], text...)
	e.buf = append(e.buf, ' ')

	if e.reset {
		e.index, e.shift = 0, 0
	} else if e.index >= len(e.buf) {
		e.index %= len(e.buf)
	}
	e.log.Debug().Str("message", text).Int("length", len(e.buf)).Msg("message set")
	return nil
}

// Message returns the current buffer, separator included.
func (e *Engine) Message() string {
	return string(e.buf)
}

// Len returns the buffer length, separator included, or 0 if no message was
// ever set.
func (e *Engine) Len() int {
	return len(e.buf)
}

// Cursor returns the position the next Tick renders.
func (e *Engine) Cursor() Cursor {
	if len(e.buf) == 0 {
		return Cursor{}
	}
	if e.shift >= bitmap.Size {
		return Cursor{Index: (e.index + 1) % len(e.buf)}
	}
	return Cursor{Index: e.index, SubShift: int(e.shift)}
}

// Tick composites the next frame, hands it to the sink and advances the
// scroll by one pixel column.
//
// It returns ErrNoMessage before the first SetMessage. A sink failure is
// returned as a *DisplayError after the cursor has advanced.
func (e *Engine) Tick() error {
	if len(e.buf) == 0 {
		return ErrNoMessage
	}

	if e.shift >= bitmap.Size {
		e.shift = 0
		e.index = (e.index + 1) % len(e.buf)
	}

	frame := e.Frame()
	e.shift++

	if err := e.sink.WriteFrame(frame); err != nil {
		return &DisplayError{Frame: frame, Err: err}
	}
	return nil
}

// Frame returns the frame for the current cursor without advancing it.
func (e *Engine) Frame() bitmap.Frame {
	if len(e.buf) == 0 {
		return bitmap.Frame{}
	}
	index, shift := e.index, e.shift
	if shift >= bitmap.Size {
		index, shift = (index+1)%len(e.buf), 0
	}

	// The first character has no predecessor; it slides in next to a blank.
	var prev bitmap.Frame
	if index > 0 {
		prev = e.glyph(e.buf[index-1])
	}
	next := e.glyph(e.buf[index])

	return Compose(prev, next, shift)
}

// glyph returns the panel-oriented glyph for c.
func (e *Engine) glyph(c byte) bitmap.Frame {
	return font.Glyph(e.font, c, e.fallback).Reverse()
}

// Compose overlays the outgoing glyph shifted shift columns to the left with
// the incoming glyph revealed shift columns from the right edge.
func Compose(prev, next bitmap.Frame, shift uint) bitmap.Frame {
	return prev.ShiftLeft(shift).Or(next.ShiftRight(bitmap.Size - shift))
}
