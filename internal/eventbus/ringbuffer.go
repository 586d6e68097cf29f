// Package eventbus decouples the matching driver from trade distribution.
// The driver publishes each sweep's trade batch into a RingBuffer; a
// dedicated consumer goroutine drains the buffer and hands batches to
// whatever the caller wired as the EventHandler. A slow or momentarily busy
// broadcaster makes the matching goroutine wait only when every slot of the
// buffer holds an event the consumer has not yet taken.
package eventbus

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrShutdownTimeout is returned by Shutdown when the context expires
// before every published event has been handed to the consumer.
var ErrShutdownTimeout = errors.New("eventbus: shutdown timeout")

// EventHandler receives events drained from a RingBuffer, one at a time,
// in publish order.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is a single-consumer, multi-producer ring buffer: any number
// of goroutines may Publish concurrently, and exactly one consumer
// goroutine, started by Start, drains them in order.
type RingBuffer[T any] struct {
	producerSequence atomic.Int64
	consumerSequence atomic.Int64

	buffer     []T
	bufferMask int64
	capacity   int64

	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
}

// NewRingBuffer creates a ring buffer of the given capacity, which must be
// a power of two, delivering drained events to handler.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("eventbus: capacity must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)
	for i := range rb.published {
		rb.published[i] = -1
	}

	return rb
}

// Publish adds an event to the buffer. It spins while the buffer is full
// rather than dropping: callers that need drop-oldest backpressure (e.g.
// a per-client outbox) should use a bounded channel instead, the way
// session.Session does for its own outbound queue.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		wrapPoint := nextSeq - rb.capacity
		consumerSeq := rb.consumerSequence.Load()
		if wrapPoint > consumerSeq {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer goroutine. Call once per RingBuffer.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting new publishes and blocks until the consumer has
// drained everything already published, or ctx expires first.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrShutdownTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.drainTo(availableSeq, nextConsumerSeq)
			return
		}

		processed := false
		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			rb.handler.OnEvent(rb.buffer[index])
			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
			processed = true
		}

		if !processed {
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) drainTo(availableSeq, nextConsumerSeq int64) {
	for nextConsumerSeq <= availableSeq {
		index := nextConsumerSeq & rb.bufferMask
		for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
			runtime.Gosched()
		}

		rb.handler.OnEvent(rb.buffer[index])
		rb.consumerSequence.Store(nextConsumerSeq)
		nextConsumerSeq++
	}
}

// ConsumerSequence returns the sequence number of the last event the
// consumer finished handling, for monitoring.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the sequence number of the last event
// published, for monitoring.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// PendingEvents returns how many published events the consumer has not
// yet handled.
func (rb *RingBuffer[T]) PendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}
