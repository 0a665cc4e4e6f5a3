package display

import (
	"context"
	"errors"
	"time"

	"github.com/zurustar/sputm/pkg/engine"
	"github.com/zurustar/sputm/pkg/logger"
)

// Runner is the part of the engine a host drives.
type Runner interface {
	RunTick(deltaMs int) (int, error)
	PushInput(ev engine.InputEvent)
	RequestQuit()
	Tick() uint64
	Paused() bool
}

// Clock measures time and waits between ticks.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunHeadless drives e without a window until the game quits or ctx ends.
// A quit, or a ctx deadline (the --timeout flag), ends the run without error.
func RunHeadless(ctx context.Context, e Runner, clock Clock) error {
	log := logger.GetLogger()
	last := clock.Now()
	delta := 0
	for {
		delay, err := e.RunTick(delta)
		if errors.Is(err, engine.ErrTerminated) {
			log.Info("Game quit", "tick", e.Tick())
			return nil
		}
		if err != nil {
			return err
		}

		if err := clock.Sleep(ctx, time.Duration(delay)*time.Millisecond); err != nil {
			e.RequestQuit()
			if errors.Is(err, context.DeadlineExceeded) {
				log.Info("Timeout reached, terminating", "tick", e.Tick())
				return nil
			}
			return err
		}
		now := clock.Now()
		delta = int(now.Sub(last) / time.Millisecond)
		last = now
	}
}
