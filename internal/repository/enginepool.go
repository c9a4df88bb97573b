package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	errs "chesscoach/internal/errors"
)

const respawnRetryDelay = 5 * time.Second

// EnginePool holds a fixed number of exclusively-owned engine handles.
// A handle is checked out for the duration of one analysis call and
// returned afterward; the pool is the only shared mutable resource in the
// analysis path and is always passed explicitly, never looked up globally.
type EnginePool struct {
	cfg  EngineConfig
	log  *zap.SugaredLogger
	free chan *EngineClient
	size int

	mu     sync.Mutex
	closed bool
}

// NewEnginePool spawns size engine processes up front. If any process
// fails to start the already-spawned ones are torn down and the error is
// returned, so the service never runs with a partially sized pool.
func NewEnginePool(cfg EngineConfig, size int, log *zap.SugaredLogger) (*EnginePool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: pool size %d", errs.ErrInvalidParameter, size)
	}

	p := &EnginePool{
		cfg:  cfg,
		log:  log,
		free: make(chan *EngineClient, size),
		size: size,
	}

	for i := 0; i < size; i++ {
		client, err := NewEngineClient(cfg, log)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.free <- client
	}

	log.Infow("engine pool ready", "size", size, "path", cfg.Path)
	return p, nil
}

// Acquire checks out a handle, waiting until one is free or the caller's
// context ends.
func (p *EnginePool) Acquire(ctx context.Context) (*EngineClient, error) {
	select {
	case client, ok := <-p.free:
		if !ok {
			return nil, errs.ErrEngineUnavailable
		}
		return client, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", errs.ErrEngineUnavailable, ctx.Err())
	}
}

// Release returns a handle to the pool. An unhealthy handle is closed and
// replaced in the background so the pool keeps its size; callers must
// release in a defer so the slot survives analysis failures.
func (p *EnginePool) Release(client *EngineClient) {
	if client == nil {
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		client.Close()
		return
	}

	if client.Healthy() {
		p.free <- client
		return
	}

	client.Close()
	go p.respawn()
}

func (p *EnginePool) respawn() {
	for {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}

		client, err := NewEngineClient(p.cfg, p.log)
		if err == nil {
			// Re-check under the lock: Close may have drained the pool
			// while the process was starting, and a deposit after the
			// drain would leak it.
			p.mu.Lock()
			if p.closed {
				p.mu.Unlock()
				client.Close()
				return
			}
			p.free <- client
			p.mu.Unlock()
			p.log.Info("engine process respawned")
			return
		}

		p.log.Errorw("engine respawn failed, retrying", "error", err)
		time.Sleep(respawnRetryDelay)
	}
}

// Close shuts down every idle engine process. Handles checked out at the
// time of the call are closed when released.
func (p *EnginePool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case client := <-p.free:
			client.Close()
		default:
			return
		}
	}
}
