package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mahirjain10/copyurl-service/internal/types"
)

const (
	DefaultQueueSize = 256

	// terminal events may wait this long for room in the queue
	terminalEnqueueWait = 2 * time.Second
	drainTimeout        = 5 * time.Second
)

var (
	ErrPublisherClosed = errors.New("status publisher closed")
	ErrQueueFull       = errors.New("status queue full")
)

// AsyncPublisher queues status messages and forwards them to next from a
// single goroutine. Publish never blocks on the broker: PROCESSING events are
// dropped when the queue is full, terminal events wait a bounded time.
type AsyncPublisher struct {
	next   StatusPublisher
	events chan *types.StatusMessage
	done   chan struct{}
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewAsyncPublisher(next StatusPublisher, size int, logger *slog.Logger) *AsyncPublisher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &AsyncPublisher{
		next:   next,
		events: make(chan *types.StatusMessage, size),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for msg := range p.events {
		if err := p.next.Publish(context.Background(), msg); err != nil {
			p.logger.Warn("status publish failed", "job_id", msg.Data.JobID, "status", msg.Data.Status, "error", err)
		}
	}
}

func (p *AsyncPublisher) Publish(ctx context.Context, msg *types.StatusMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.events <- msg:
		return nil
	default:
	}

	if msg.Data.Status == types.PROCESSING {
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.logger.Debug("status queue full, dropping progress events", "dropped", n)
		}
		return nil
	}

	timer := time.NewTimer(terminalEnqueueWait)
	defer timer.Stop()
	select {
	case p.events <- msg:
		return nil
	case <-timer.C:
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped is the number of progress events discarded because the queue was full.
func (p *AsyncPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting messages, gives the queue a bounded time to drain and
// closes next.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(drainTimeout):
		p.logger.Warn("status queue not drained before close", "pending", len(p.events))
	}
	return p.next.Close()
}
