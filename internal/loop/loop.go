// Package loop runs every callback of the trainer on one control goroutine.
// Input handlers, timer ticks and resize notifications are all queued here,
// so the state they touch needs no locking.
package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Scheduler schedules callbacks on the control goroutine.
type Scheduler interface {
	After(d time.Duration, fn func()) *Timer
	Every(d time.Duration, fn func()) *Timer
}

// Timer is the cancellation token of a scheduled callback.
type Timer struct {
	loop   *Loop
	at     time.Time
	seq    uint64
	period time.Duration
	fn     func()
	index  int // position in the heap, -1 when not scheduled
}

// Stop cancels the timer. It reports whether the timer was still pending.
// Stopping a fired or stopped timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.loop.timers, t.index)
	return true
}

// Pending reports whether the timer will fire again.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0
}

// Loop is a single-threaded event loop with timers ordered by absolute fire
// time. Timers with the same fire time run in the order they were scheduled.
type Loop struct {
	clock  Clock
	timers timerHeap
	seq    uint64

	mu    sync.Mutex
	posts []func()
	wake  chan struct{}
}

// New returns a loop reading time from clock.
func New(clock Clock) *Loop {
	return &Loop{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// After schedules fn to run once, d from now. Must be called on the loop.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	return l.schedule(d, 0, fn)
}

// Every schedules fn to run every d until the timer is stopped. Must be
// called on the loop.
func (l *Loop) Every(d time.Duration, fn func()) *Timer {
	if d <= 0 {
		panic("loop: non-positive interval")
	}
	return l.schedule(d, d, fn)
}

func (l *Loop) schedule(d, period time.Duration, fn func()) *Timer {
	l.seq++
	t := &Timer{
		loop:   l,
		at:     l.clock.Now().Add(d),
		seq:    l.seq,
		period: period,
		fn:     fn,
	}
	heap.Push(&l.timers, t)
	return t
}

// Post queues fn to run on the loop. It is safe to call from any goroutine,
// the loop's own included, and never blocks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posts = append(l.posts, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of scheduled timers.
func (l *Loop) Pending() int {
	return len(l.timers)
}

// drain runs queued posts in order, including those posted while draining.
func (l *Loop) drain() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.posts
		l.posts = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// fireNext runs the earliest timer if it is due at or before until.
func (l *Loop) fireNext(until time.Time) bool {
	if len(l.timers) == 0 || l.timers[0].at.After(until) {
		return false
	}
	t := l.timers[0]
	if t.period > 0 {
		// Reschedule before running so the callback may stop it.
		l.seq++
		t.at = t.at.Add(t.period)
		t.seq = l.seq
		heap.Fix(&l.timers, 0)
	} else {
		heap.Pop(&l.timers)
	}
	t.fn()
	return true
}

// RunDue runs queued posts and every timer due by the clock's current time.
// It returns the number of callbacks run.
func (l *Loop) RunDue() int {
	n := l.drain()
	now := l.clock.Now()
	for l.fireNext(now) {
		n++
		n += l.drain()
	}
	return n
}

// Advance moves a ManualClock forward by d, firing timers at their own fire
// times along the way. It panics if the loop does not use a ManualClock.
func (l *Loop) Advance(d time.Duration) {
	mc, ok := l.clock.(*ManualClock)
	if !ok {
		panic("loop: Advance requires a ManualClock")
	}
	target := mc.Now().Add(d)
	l.drain()
	for len(l.timers) > 0 && !l.timers[0].at.After(target) {
		mc.Set(l.timers[0].at)
		l.fireNext(l.timers[0].at)
		l.drain()
	}
	mc.Set(target)
}

// Run executes callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		l.RunDue()

		var deadline <-chan time.Time
		if len(l.timers) > 0 {
			timer.Reset(l.timers[0].at.Sub(l.clock.Now()))
			deadline = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-deadline:
		}
	}
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

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
	t.index = -1
	*h = old[:n-1]
	return t
}
