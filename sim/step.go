package sim

import "time"

// Every adapts fn, which must run once per interval, to a loop stepping tps
// times per second. Intervals shorter than a step run fn several times in
// the same step so the average rate holds.
func Every(tps int, interval time.Duration, fn func() error) func() error {
	if tps <= 0 {
		tps = TPS
	}
	step := time.Second / time.Duration(tps)
	if interval <= 0 {
		interval = step
	}
	var elapsed time.Duration
	return func() error {
		elapsed += step
		for elapsed >= interval {
			elapsed -= interval
			if err := fn(); err != nil {
				return err
			}
		}
		return nil
	}
}
