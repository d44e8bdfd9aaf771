package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed indicates the pool has been shut down.
var ErrPoolClosed = errors.New("inference: pool closed")

// Pool holds a fixed set of ONNX sessions so multiple goroutines can run
// inference concurrently without sharing a session.
type Pool struct {
	sessions chan *Session
	size     int

	mu     sync.Mutex
	closed bool
}

// NewPool creates size sessions for the given checkpoint. A size of zero or
// less is treated as 1.
func NewPool(modelPath string, size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		sessions: make(chan *Session, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		session, err := NewSession(modelPath)
		if err != nil {
			_ = p.Close() // release the sessions created so far
			return nil, fmt.Errorf("creating session %d: %w", i, err)
		}
		p.sessions <- session
	}

	return p, nil
}

// Acquire takes a session from the pool, blocking until one is free or ctx
// is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool. Sessions released after Close are
// destroyed.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close()
	}
}

// Close destroys every session currently in the pool. Subsequent Acquire
// calls fail with ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.sessions)

	var errs []error
	for session := range p.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the configured pool size.
func (p *Pool) Size() int {
	return p.size
}
