// Package notify fans paid-order events out to email and the admin feed
// without blocking the request that produced them.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/ashkan-django/bookstore-api/models"
)

// Notifier accepts paid orders for asynchronous delivery.
type Notifier interface {
	// OrderPaid enqueues the order and reports whether it was accepted.
	OrderPaid(order models.Order) bool
}

// Sender delivers one notification synchronously.
type Sender interface {
	SendOrderPaid(ctx context.Context, order models.Order) error
}

// Dispatcher is a fixed worker pool fed by a buffered queue.
type Dispatcher struct {
	senders []Sender
	workers int
	queue   chan models.Order

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(workers, queueSize int, senders ...Sender) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{senders: senders, workers: workers, queue: make(chan models.Order, queueSize)}
}

// Start launches the workers; they exit once Stop drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for order := range d.queue {
				d.deliver(ctx, order)
			}
		}()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, order models.Order) {
	for _, s := range d.senders {
		if err := s.SendOrderPaid(ctx, order); err != nil {
			log.Printf("notify: order %d: %v", order.ID, err)
		}
	}
}

// OrderPaid never blocks. A full queue drops the event.
func (d *Dispatcher) OrderPaid(order models.Order) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- order:
		return true
	default:
		log.Printf("notify: queue full, dropping order %d", order.ID)
		return false
	}
}

// Stop refuses new events and waits for queued ones to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
