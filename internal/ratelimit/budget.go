package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBudgetExceeded is returned when a caller has used up its runs for the
// current window.
var ErrBudgetExceeded = errors.New("run budget exceeded")

// RunBudget tracks per-caller sanity-check runs within fixed time windows.
type RunBudget struct {
	mu     sync.Mutex
	counts map[string]*windowCounter

	maxPerWindow int
	windowSize   time.Duration
	now          func() time.Time
	nextSweep    time.Time
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

// NewRunBudget creates a budget allowing maxPerWindow runs per caller within windowSize.
func NewRunBudget(maxPerWindow int, windowSize time.Duration) *RunBudget {
	return &RunBudget{
		counts:       make(map[string]*windowCounter),
		maxPerWindow: maxPerWindow,
		windowSize:   windowSize,
		now:          time.Now,
	}
}

// Check returns an error if the caller has exceeded the budget.
func (b *RunBudget) Check(caller string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.check(caller)
}

func (b *RunBudget) check(caller string) error {
	wc, ok := b.counts[caller]
	if !ok || b.now().After(wc.windowEnd) {
		return nil // no window or expired window
	}
	if wc.count >= b.maxPerWindow {
		return fmt.Errorf("%w: caller %s (%d/%d in window)", ErrBudgetExceeded, caller, wc.count, b.maxPerWindow)
	}
	return nil
}

// Record records a run for the caller.
func (b *RunBudget) Record(caller string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(caller)
}

func (b *RunBudget) record(caller string) {
	now := b.now()
	b.sweep(now)
	wc, ok := b.counts[caller]
	if !ok || now.After(wc.windowEnd) {
		b.counts[caller] = &windowCounter{
			count:     1,
			windowEnd: now.Add(b.windowSize),
		}
		return
	}
	wc.count++
}

// sweep drops expired windows, at most once per window length, so callers
// seen once do not accumulate.
func (b *RunBudget) sweep(now time.Time) {
	if now.Before(b.nextSweep) {
		return
	}
	for caller, wc := range b.counts {
		if now.After(wc.windowEnd) {
			delete(b.counts, caller)
		}
	}
	b.nextSweep = now.Add(b.windowSize)
}

// Take checks and records in one step.
func (b *RunBudget) Take(caller string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(caller); err != nil {
		return err
	}
	b.record(caller)
	return nil
}
