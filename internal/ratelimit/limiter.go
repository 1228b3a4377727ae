// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ratelimit implements a fixed-window request counter keyed by
// client identity.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Decision is the result of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the current window of the key ends.
	Reset time.Time
}

// RetryAfter returns how long a throttled client should wait, rounded up
// to whole seconds and never below one.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.Reset.Sub(now)
	secs := (wait + time.Second - 1) / time.Second
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter counts requests per key in fixed windows. The zero value is not
// usable; construct with New.
type Limiter struct {
	window time.Duration
	max    int
	clock  Clock

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// New returns a limiter allowing max requests per key in each window.
func New(window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		window:  window,
		max:     max,
		clock:   systemClock{},
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Max returns the configured request budget per window.
func (l *Limiter) Max() int { return l.max }

// Now returns the limiter's notion of the current time.
func (l *Limiter) Now() time.Time { return l.clock.Now() }

// Allow records one request for key and reports whether it fits in the
// current window. A request over budget is still counted.
func (l *Limiter) Allow(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.windowStart.Add(l.window)) {
		e = &entry{windowStart: now}
		l.entries[key] = e
	}
	e.count++

	remaining := l.max - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   e.count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		Reset:     e.windowStart.Add(l.window),
	}
}

// Sweep drops entries whose window has ended and returns how many were
// removed.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, e := range l.entries {
		if !now.Before(e.windowStart.Add(l.window)) {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Janitor sweeps expired entries every interval until ctx is done. It
// always returns nil so it can run under an errgroup.
func (l *Limiter) Janitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}
