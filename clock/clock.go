// Package clock provides the reference clock that message expirations are computed from.
package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"
)

// Clock is a source of the current time.
type Clock interface {
	Now() time.Time
}

// System reads the local wall clock.
type System struct{}

// Now returns time.Now.
func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return time.Time(f) }

// NTP is the local clock corrected by the offset reported by an NTP server. The offset is refreshed
// on read once syncInterval has passed; failed refreshes back off exponentially and keep the last
// known offset.
type NTP struct {
	server       string
	syncInterval time.Duration
	query        func(server string) (*ntp.Response, error)

	mu        sync.Mutex
	offset    time.Duration
	lastSync  time.Time
	backoff   time.Duration
	lastError error
}

const (
	backoffInitial = 5 * time.Second
	backoffMax     = 5 * time.Minute
)

// NewNTP creates an NTP clock and performs the first sync. A failed first sync is not fatal: the
// clock starts with a zero offset and retries later.
func NewNTP(server string, syncInterval time.Duration) *NTP {
	return newNTP(server, syncInterval, ntp.Query)
}

func newNTP(server string, syncInterval time.Duration, query func(string) (*ntp.Response, error)) *NTP {
	c := &NTP{server: server, syncInterval: syncInterval, query: query}
	c.mu.Lock()
	c.syncLocked()
	c.mu.Unlock()
	return c
}

// Now returns the corrected current time.
func (c *NTP) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	effective := c.syncInterval
	if c.backoff > 0 {
		effective = c.backoff
	}
	if time.Since(c.lastSync) >= effective {
		c.syncLocked()
	}
	return time.Now().Add(c.offset)
}

// Health reports the current offset and the error of the last sync, if any.
func (c *NTP) Health() (offset time.Duration, lastSync time.Time, lastError error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.lastSync, c.lastError
}

func (c *NTP) syncLocked() {
	resp, err := c.query(c.server)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		c.lastError = err
		c.lastSync = time.Now()
		if c.backoff == 0 {
			c.backoff = backoffInitial
		} else if c.backoff *= 2; c.backoff > backoffMax {
			c.backoff = backoffMax
		}
		return
	}
	c.offset = resp.ClockOffset
	c.lastSync = time.Now()
	c.lastError = nil
	c.backoff = 0
}
