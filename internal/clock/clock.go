// Package clock provides the time sources the pool reads once per
// operation.
package clock

import (
	"context"
	"sync"
	"time"
)

// System reads the host wall clock.
type System struct{}

// Now returns the current unix time in seconds.
func (System) Now(context.Context) (int64, error) {
	return time.Now().Unix(), nil
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now int64
}

func NewManual(now int64) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now, nil
}

// Set moves the clock to now. Moving backwards is allowed.
func (m *Manual) Set(now int64) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Advance moves the clock forward by secs seconds.
func (m *Manual) Advance(secs int64) {
	m.mu.Lock()
	m.now += secs
	m.mu.Unlock()
}
