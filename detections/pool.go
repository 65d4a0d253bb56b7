package detections

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultPoolSize Pool configuration
	DefaultPoolSize   = 4
	AcquireTimeout    = 30 * time.Second
	HealthCheckPeriod = 60 * time.Second
)

// SessionPool hands out ModelSessions to one request at a time. A session's
// bound tensors are not safe for concurrent Run calls; the pool is what lets
// the detector serve requests in parallel.
type SessionPool struct {
	sessions   chan *ModelSession
	size       int
	newSession func() (*ModelSession, error)
	mu         sync.Mutex
	live       int
	closed     bool
	done       chan struct{}
	metricsMu  sync.RWMutex
	metrics    PoolMetrics
	lastErrors []error
}

type PoolMetrics struct {
	Size            int           `json:"pool_size"`
	InUse           int           `json:"sessions_in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	Discarded       int64         `json:"discarded"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

func NewSessionPool(size int, newSession func() (*ModelSession, error)) (*SessionPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &SessionPool{
		sessions:   make(chan *ModelSession, size),
		size:       size,
		newSession: newSession,
		done:       make(chan struct{}),
		metrics:    PoolMetrics{Size: size},
	}

	// Initialize sessions
	for i := 0; i < size; i++ {
		session, err := newSession()
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		pool.live++
		pool.sessions <- session
	}

	go pool.healthCheck()

	return pool, nil
}

func (p *SessionPool) Acquire(ctx context.Context) (*ModelSession, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	defer func() {
		p.metricsMu.Lock()
		p.metrics.WaitTime += time.Since(start)
		p.metricsMu.Unlock()
	}()

	timer := time.NewTimer(AcquireTimeout)
	defer timer.Stop()

	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.metricsMu.Lock()
		p.metrics.InUse++
		p.metrics.TotalAcquired++
		p.metricsMu.Unlock()
		return session, nil
	case <-timer.C:
		p.recordAcquireFailure()
		return nil, fmt.Errorf("%w: timeout after %s", ErrPoolUnavailable, AcquireTimeout)
	case <-ctx.Done():
		p.recordAcquireFailure()
		return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, ctx.Err())
	}
}

func (p *SessionPool) Release(session *ModelSession) {
	p.metricsMu.Lock()
	p.metrics.InUse--
	p.metrics.TotalReleased++
	p.metricsMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		session.Destroy()
		return
	}
	p.sessions <- session
}

// Discard destroys a session that failed mid-run instead of returning it,
// and starts building its replacement. If that fails, the health check
// tries again.
func (p *SessionPool) Discard(session *ModelSession) {
	p.metricsMu.Lock()
	p.metrics.InUse--
	p.metrics.Discarded++
	p.metricsMu.Unlock()

	session.Destroy()

	p.mu.Lock()
	p.live--
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		go p.replenish()
	}
}

func (p *SessionPool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.done)
	close(p.sessions)

	for session := range p.sessions {
		session.Destroy()
	}
}

func (p *SessionPool) healthCheck() {
	ticker := time.NewTicker(HealthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.replenish()
		}
	}
}

// replenish recreates missing sessions. Slots are reserved up front so
// concurrent calls never build more than size sessions.
func (p *SessionPool) replenish() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	missing := p.size - p.live
	p.live += missing
	p.mu.Unlock()

	for i := 0; i < missing; i++ {
		session, err := p.newSession()
		if err != nil {
			p.mu.Lock()
			p.live--
			p.mu.Unlock()
			p.recordError(err)
			continue
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			session.Destroy()
			return
		}
		p.sessions <- session
		p.mu.Unlock()
	}
}

func (p *SessionPool) recordAcquireFailure() {
	p.metricsMu.Lock()
	p.metrics.AcquireFailures++
	p.metricsMu.Unlock()
}

func (p *SessionPool) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErrors = append(p.lastErrors, err)
	if len(p.lastErrors) > 10 {
		p.lastErrors = p.lastErrors[1:]
	}
}

// LastErrors returns the most recent session creation failures.
func (p *SessionPool) LastErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]error, len(p.lastErrors))
	copy(out, p.lastErrors)
	return out
}

// Metrics returns a snapshot of the pool counters.
func (p *SessionPool) Metrics() PoolMetrics {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()
	return p.metrics
}
