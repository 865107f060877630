//go:build !cgo

package sim

import "errors"

// TPS is the update rate of the window loop.
const TPS = 60

func RunWindow(_ *Panel, _ string, _ func() error) error {
	return errors.New("sim: window mode requires cgo (build/run with CGO_ENABLED=1)")
}
