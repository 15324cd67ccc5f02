package clock

import (
	"sync"
	"time"
)

type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed e um relogio manual para testes; Advance move o instante corrente.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
