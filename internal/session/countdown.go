package session

import (
	"sync"
	"time"
)

// Countdown starts per-question countdowns: one tick per second, expiry at
// zero. Tests substitute a manual implementation to simulate time.
type Countdown interface {
	Start(seconds int, onTick func(remaining int), onExpire func()) CountdownHandle
}

// CountdownHandle cancels a running countdown. Stop must be called whenever
// a question is left early, otherwise the expiry would fire a duplicate
// advance.
type CountdownHandle interface {
	Stop()
}

// tickerCountdown is the real Countdown backed by a time.Ticker.
type tickerCountdown struct {
	interval time.Duration
}

// NewTickerCountdown returns a Countdown ticking once per second.
func NewTickerCountdown() Countdown {
	return &tickerCountdown{interval: time.Second}
}

func (c *tickerCountdown) Start(seconds int, onTick func(remaining int), onExpire func()) CountdownHandle {
	h := &tickerHandle{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				remaining--
				if remaining <= 0 {
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	}()

	return h
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
}
