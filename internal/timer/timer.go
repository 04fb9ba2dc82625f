// Package timer is the periodic-timer collaborator serviced by the run
// loop: callers schedule one-shot or recurring callbacks, and each loop
// cycle fires whatever came due.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Timer is a scheduled callback. Cancel is safe to call at any time.
type Timer struct {
	when     time.Time
	period   time.Duration
	fn       func()
	index    int
	canceled bool
}

func (t *Timer) Cancel() {
	t.canceled = true
}

// Service holds pending timers ordered by deadline.
type Service struct {
	mu sync.Mutex
	h  timerHeap
}

func New() *Service {
	return &Service{}
}

// After schedules fn to run once, d from now.
func (s *Service) After(d time.Duration, fn func()) *Timer {
	return s.add(time.Now().Add(d), 0, fn)
}

// Every schedules fn to run every d, starting d from now.
func (s *Service) Every(d time.Duration, fn func()) *Timer {
	return s.add(time.Now().Add(d), d, fn)
}

func (s *Service) add(when time.Time, period time.Duration, fn func()) *Timer {
	t := &Timer{when: when, period: period, fn: fn}
	s.mu.Lock()
	heap.Push(&s.h, t)
	s.mu.Unlock()
	return t
}

// Pending returns the number of scheduled timers, counting canceled ones
// not yet swept.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}

// Service fires timers due at now, at most max (0 means unbounded), and
// returns how many fired. Recurring timers are rescheduled after firing.
// Callbacks run outside the lock so they may schedule further timers.
func (s *Service) Service(now time.Time, max int) int {
	fired := 0
	for {
		if max > 0 && fired >= max {
			return fired
		}

		s.mu.Lock()
		if s.h.Len() == 0 {
			s.mu.Unlock()
			return fired
		}
		next := s.h[0]
		if next.canceled {
			heap.Pop(&s.h)
			s.mu.Unlock()
			continue
		}
		if next.when.After(now) {
			s.mu.Unlock()
			return fired
		}
		heap.Pop(&s.h)
		if next.period > 0 {
			next.when = now.Add(next.period)
			heap.Push(&s.h, next)
		}
		s.mu.Unlock()

		next.fn()
		fired++
	}
}

type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
