package fetcher

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// circuitBreaker stops all requests for a cool-down period once the site
// starts blocking us.
type circuitBreaker struct {
	mutex     sync.RWMutex
	openUntil time.Time
	delay     time.Duration
	now       func() time.Time
}

func newCircuitBreaker(delay time.Duration) *circuitBreaker {
	return &circuitBreaker{delay: delay, now: time.Now}
}

func (b *circuitBreaker) isOpen() bool {
	b.mutex.RLock()
	now := b.now()
	wasOpen := now.Before(b.openUntil)
	wasTriggered := !b.openUntil.IsZero()
	b.mutex.RUnlock()

	if !wasOpen && wasTriggered {
		b.mutex.Lock()
		// Double-check after acquiring write lock
		if !b.openUntil.IsZero() && !now.Before(b.openUntil) {
			b.openUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		b.mutex.Unlock()
	}

	return wasOpen
}

func (b *circuitBreaker) trigger() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.openUntil = b.now().Add(b.delay)
	log.Warnf("🚫 Circuit breaker activated! All requests disabled until %v (%v)",
		b.openUntil.Format("15:04:05"), b.delay)
}

func (b *circuitBreaker) remaining() time.Duration {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	remaining := b.openUntil.Sub(b.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// check returns a CIRCUIT_OPEN error while the breaker is open.
func (b *circuitBreaker) check() error {
	if !b.isOpen() {
		return nil
	}
	remaining := b.remaining().Round(time.Second)
	log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining)
	return NewFetchError(CodeCircuitOpen, "requests disabled for "+remaining.String()+" more", nil)
}
