// Package spsc provides a bounded, wait-free single-producer/single-consumer
// ring buffer for handing values from a real-time goroutine to a slower reader.
//
// New returns two handles over one fixed backing array. The Producer may only
// be used from one goroutine and the Consumer from one (possibly different)
// goroutine. Neither Push nor Pop ever blocks, spins, or allocates.
package spsc

import (
	"errors"
	"sync/atomic"
)

// DefaultCapacity is the slot count used when nothing else is configured.
const DefaultCapacity = 1024

const cacheLine = 64

var (
	// ErrFull is returned by Push when every slot is occupied. The value was
	// not stored; the caller decides what to do with it.
	ErrFull = errors.New("spsc: channel full")

	// ErrEmpty is returned by Pop when no value is available.
	ErrEmpty = errors.New("spsc: channel empty")

	// ErrInvalidCapacity is returned by New for a capacity <= 0.
	ErrInvalidCapacity = errors.New("spsc: capacity must be > 0")
)

// ring is the shared state. head is written only by the consumer, tail only
// by the producer; each sits on its own cache line.
type ring[T any] struct {
	_    [cacheLine]byte
	head atomic.Uint64 // next slot to read
	_    [cacheLine - 8]byte
	tail atomic.Uint64 // next slot to write
	_    [cacheLine - 8]byte

	size  uint64
	slots []T
}

// noCopy makes go vet complain about copied handles.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Producer is the write half of a channel.
type Producer[T any] struct {
	noCopy noCopy
	r      *ring[T]
}

// Consumer is the read half of a channel.
type Consumer[T any] struct {
	noCopy noCopy
	r      *ring[T]
}

// New allocates a channel with room for capacity values and returns its
// producer and consumer handles.
func New[T any](capacity int) (*Producer[T], *Consumer[T], error) {
	if capacity <= 0 {
		return nil, nil, ErrInvalidCapacity
	}
	r := &ring[T]{
		size:  uint64(capacity),
		slots: make([]T, capacity),
	}
	return &Producer[T]{r: r}, &Consumer[T]{r: r}, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int) (*Producer[T], *Consumer[T]) {
	p, c, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return p, c
}

// Push stores v in the next free slot, or returns ErrFull without touching
// the channel.
func (p *Producer[T]) Push(v T) error {
	r := p.r
	tail := r.tail.Load()
	if tail-r.head.Load() >= r.size {
		return ErrFull
	}
	r.slots[tail%r.size] = v
	// Publishing tail makes the slot write visible to the consumer.
	r.tail.Store(tail + 1)
	return nil
}

// Len returns the number of values waiting to be read. It is a snapshot.
func (p *Producer[T]) Len() int { return p.r.len() }

// Cap returns the fixed capacity.
func (p *Producer[T]) Cap() int { return int(p.r.size) }

// Pop removes and returns the oldest value, or ErrEmpty.
func (c *Consumer[T]) Pop() (T, error) {
	var zero T
	r := c.r
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, ErrEmpty
	}
	i := head % r.size
	v := r.slots[i]
	r.slots[i] = zero
	r.head.Store(head + 1)
	return v, nil
}

// DrainAll pops until the channel is empty and returns the values in FIFO
// order. It returns nil when nothing was available and never waits for more.
func (c *Consumer[T]) DrainAll() []T {
	return c.DrainInto(nil)
}

// DrainInto is DrainAll appending to dst.
func (c *Consumer[T]) DrainInto(dst []T) []T {
	for {
		v, err := c.Pop()
		if err != nil {
			return dst
		}
		dst = append(dst, v)
	}
}

// Len returns the number of values waiting to be read. It is a snapshot.
func (c *Consumer[T]) Len() int { return c.r.len() }

// Cap returns the fixed capacity.
func (c *Consumer[T]) Cap() int { return int(c.r.size) }

func (r *ring[T]) len() int {
	// Load head first: tail can only grow afterwards, so tail >= head.
	head := r.head.Load()
	return int(r.tail.Load() - head)
}
