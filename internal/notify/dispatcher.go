// Package notify delivers matched offers to the configured sinks. A single
// bounded queue decouples the per-offer pipeline workers from delivery: one
// consumer goroutine drains it sequentially, which keeps the downstream
// rate limits honest no matter how many workers produce alerts.
//
// Backpressure policy: when the queue is full the oldest queued alert is
// dropped to make room for the newest. Delivery is best-effort; failures are
// retried a bounded number of times inside each sink, then logged and dropped.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/models"
)

// Sink is one delivery target.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert models.Alert) error
}

// Dispatcher owns the bounded alert queue and its single consumer.
type Dispatcher struct {
	queue       chan models.Alert
	sinks       []Sink
	sendTimeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	delivered uint64
	dropped   uint64
}

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(capacity int, sendTimeout time.Duration, sinks ...Sink) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		queue:       make(chan models.Alert, capacity),
		sinks:       sinks,
		sendTimeout: sendTimeout,
		done:        make(chan struct{}),
	}
}

// Start launches the consumer goroutine. Delivery deliberately does not stop
// on context cancellation: Close drains whatever is queued best-effort, each
// send bounded by its own timeout.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for alert := range d.queue {
			d.deliver(alert)
		}
	}()
}

func (d *Dispatcher) deliver(alert models.Alert) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := sink.Send(ctx, alert)
		cancel()
		if err != nil {
			logger.Error("failed to deliver alert %s via %s: %v", alert.ID, sink.Name(), err)
			continue
		}
		d.mu.Lock()
		d.delivered++
		d.mu.Unlock()
	}
}

// Enqueue queues an alert, dropping the oldest queued one when full.
// Safe for concurrent producers. No-op after Close.
func (d *Dispatcher) Enqueue(alert models.Alert) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	for {
		select {
		case d.queue <- alert:
			return
		default:
		}
		select {
		case old := <-d.queue:
			d.dropped++
			logger.Warn("alert queue full, dropping oldest alert %s", old.ID)
		default:
		}
	}
}

// Close stops accepting alerts and blocks until queued ones are flushed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

// Stats reports delivered and dropped alert counts.
func (d *Dispatcher) Stats() (delivered, dropped uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delivered, d.dropped
}
