package directive

import (
	"context"
	"log/slog"
	"time"

	"github.com/nuetzliches/micro/internal/timer"
)

// Run drives the main service loop: each cycle waits up to the control's
// sleep bound, then services due timers (bounded by MaxIterations). The
// loop exits only when ctx is canceled; any other per-cycle failure is
// logged and the loop continues.
func Run(ctx context.Context, ctl *Control, timers *timer.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	sleep := ctl.Sleep
	if sleep <= 0 {
		sleep = DefaultSleep * time.Millisecond
	}
	max := ctl.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}

	tick := time.NewTicker(sleep)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("run_loop_interrupted")
			return
		case <-tick.C:
			cycle(timers, max, logger)
		}
	}
}

func cycle(timers *timer.Service, max int, logger *slog.Logger) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("cycle_failed", slog.Any("panic", p))
		}
	}()
	timers.Service(time.Now(), max)
}
