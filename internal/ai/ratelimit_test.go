package ai

import (
	"testing"
	"time"
)

// fakeClock drives a RateLimiter without real sleeping. Sleeping advances
// the clock, mirroring what a blocked caller would observe.
type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func newFakeLimiter(interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := NewRateLimiter(interval)
	r.now = clock.now
	r.sleep = clock.sleep
	return r, clock
}

func TestRateLimiterFirstCallDoesNotSleep(t *testing.T) {
	r, clock := newFakeLimiter(2 * time.Second)
	r.Wait()
	if len(clock.slept) != 0 {
		t.Errorf("first Wait() slept %v, want no sleep", clock.slept)
	}
}

func TestRateLimiterEnforcesSpacing(t *testing.T) {
	r, clock := newFakeLimiter(2 * time.Second)

	r.Wait()
	clock.t = clock.t.Add(500 * time.Millisecond)
	r.Wait()

	if len(clock.slept) != 1 {
		t.Fatalf("second Wait() recorded %d sleeps, want 1", len(clock.slept))
	}
	if got, want := clock.slept[0], 1500*time.Millisecond; got != want {
		t.Errorf("slept %v, want %v", got, want)
	}
}

func TestRateLimiterSkipsSleepAfterInterval(t *testing.T) {
	r, clock := newFakeLimiter(2 * time.Second)

	r.Wait()
	clock.t = clock.t.Add(3 * time.Second)
	r.Wait()

	if len(clock.slept) != 0 {
		t.Errorf("Wait() after interval slept %v, want no sleep", clock.slept)
	}
}
