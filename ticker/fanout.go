package ticker

import (
	"errors"

	"github.com/flavioheleno/ledticker/bitmap"
)

// Fanout writes every frame to all of its sinks. A failing sink does not stop
// the others; their errors are joined.
type Fanout []Sink

// WriteFrame implements Sink.
func (f Fanout) WriteFrame(frame bitmap.Frame) error {
	var errs []error
	for _, s := range f {
		if err := s.WriteFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
