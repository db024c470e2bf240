package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Connectivity reports whether the remote is presently reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Static is a fixed Connectivity, used for offline mode and tests.
type Static bool

func (s Static) Online(ctx context.Context) bool { return bool(s) }

// Pinger is the probe target of a Prober.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober checks reachability by pinging the remote, caching the answer for ttl.
type Prober struct {
	target  Pinger
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	checked time.Time
	probed  bool
	online  bool
}

// NewProber creates a Prober. A non-positive ttl disables caching.
func NewProber(target Pinger, ttl, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{target: target, ttl: ttl, timeout: timeout, now: time.Now}
}

// Online pings the remote unless a fresh answer is cached.
func (p *Prober) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.ttl > 0 && !p.checked.IsZero() && now.Sub(p.checked) < p.ttl {
		return p.online
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.target.Ping(ctx)

	if online := err == nil; online != p.online || !p.probed {
		slog.Info("connectivity changed",
			"component", "dispatch",
			"online", online,
			"error", err,
		)
	}
	p.online = err == nil
	p.probed = true
	p.checked = now
	return p.online
}

// Invalidate drops the cached answer so the next Online call probes.
func (p *Prober) Invalidate() {
	p.mu.Lock()
	p.checked = time.Time{}
	p.mu.Unlock()
}
