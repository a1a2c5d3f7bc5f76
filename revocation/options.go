package revocation

import "time"

// Option configures a MemoryStore, RedisStore or Sweeper.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used to turn record expiries into TTLs and
// to pick the prune cutoff. It should be the same clock the engine issues
// and verifies tokens with.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
