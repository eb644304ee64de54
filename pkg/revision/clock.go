package revision

import (
	"sync"
	"time"

	"github.com/oneconcern/termstore/pkg/model"
)

// Clock issues strictly increasing millisecond timestamps
type Clock struct {
	mx   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock builds a clock based on a time source. The default source is time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next timestamp
func (c *Clock) Next() int64 {
	c.mx.Lock()
	defer c.mx.Unlock()
	ts := model.TimeToTimestamp(c.now())
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe that some timestamp has already been issued
func (c *Clock) Observe(ts int64) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if ts > c.last {
		c.last = ts
	}
}
