// Package clock supplies the module's monotonic time source.
//
// The Peer Path Manager's freshness scoring, expiration, and rate limiting
// all depend on a monotonic millisecond clock (spec: Clock.now() -> u64 ms).
// benbjohnson/clock gives production code a real wall clock and tests a
// fully deterministic fake one, without threading a time.Time-vs-uint64
// conversion through every call site.
package clock

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Source is the Clock collaborator consumed by the peer path manager.
type Source interface {
	// NowMillis returns the current monotonic time in milliseconds.
	NowMillis() uint64
}

// realClock wraps clock.Clock (real time in production).
type realClock struct {
	c     clock.Clock
	start time.Time
}

// New returns a Source backed by the real clock: the wall-clock Unix
// milliseconds at construction plus the monotonic time elapsed since.
func New() Source {
	c := clock.New()
	return &realClock{c: c, start: c.Now()}
}

func (r *realClock) NowMillis() uint64 {
	return uint64(r.start.UnixMilli() + r.c.Since(r.start).Milliseconds())
}

// Mock is a controllable Source for tests, backed by clock.Mock.
type Mock struct {
	m *clock.Mock
}

// NewMock returns a Mock clock started at the given millisecond timestamp.
func NewMock(startMillis uint64) *Mock {
	m := clock.NewMock()
	m.Set(time.UnixMilli(int64(startMillis)))
	return &Mock{m: m}
}

func (m *Mock) NowMillis() uint64 {
	return uint64(m.m.Now().UnixMilli())
}

// Advance moves the mock clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.m.Add(d)
}

// Set moves the mock clock to an absolute millisecond timestamp.
func (m *Mock) Set(millis uint64) {
	m.m.Set(time.UnixMilli(int64(millis)))
}
