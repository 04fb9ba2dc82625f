package directive

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nuetzliches/micro/internal/timer"
)

func TestRunServicesTimersUntilCanceled(t *testing.T) {
	timers := timer.New()
	var fired atomic.Int32
	timers.After(0, func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, &Control{Sleep: time.Millisecond, MaxIterations: 10}, timers, nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timer never fired")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit on cancel")
	}
}

func TestRunSurvivesPanickingTimer(t *testing.T) {
	timers := timer.New()
	var fired atomic.Int32
	timers.After(0, func() { panic("boom") })
	timers.After(2*time.Millisecond, func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, &Control{Sleep: time.Millisecond, MaxIterations: 10}, timers, nil)

	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("loop did not survive the panic")
		case <-time.After(time.Millisecond):
		}
	}
}
