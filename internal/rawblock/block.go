package rawblock

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/dynvec/internal/conv"
)

// ErrOutOfMemory is returned when a block cannot be allocated.
var ErrOutOfMemory = errors.New("out of memory")

// Acquirer is an interface for acquiring memory.
type Acquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Block exclusively owns a fixed-capacity region of slots for T.
type Block[T any] struct {
	slots []T
	bytes int64
	acq   Acquirer
}

// Allocate reserves a block of exactly n slots. n == 0 yields the empty
// block without allocating. Failure is returned, never recovered here.
func Allocate[T any](n int, acq Acquirer) (Block[T], error) {
	if n < 0 {
		panic(fmt.Sprintf("rawblock: negative capacity %d", n))
	}
	if n == 0 {
		return Block[T]{}, nil
	}

	var zero T
	size, err := conv.SlotBytes(n, unsafe.Sizeof(zero))
	if err != nil {
		return Block[T]{}, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	if acq != nil {
		if err := acq.AcquireMemory(size); err != nil {
			return Block[T]{}, fmt.Errorf("%w: %d slots (%d bytes): %w", ErrOutOfMemory, n, size, err)
		}
	}

	slots, err := makeSlots[T](n)
	if err != nil {
		if acq != nil {
			acq.ReleaseMemory(size)
		}
		return Block[T]{}, err
	}

	return Block[T]{slots: slots, bytes: size, acq: acq}, nil
}

// makeSlots turns the runtime's length panic into an error. A genuine
// exhaustion of the heap is fatal in Go and cannot be observed here.
func makeSlots[T any](n int) (slots []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slots = nil
			err = fmt.Errorf("%w: %d slots: %v", ErrOutOfMemory, n, r)
		}
	}()
	return make([]T, n), nil
}

// Cap returns the number of slots in the block.
func (b *Block[T]) Cap() int {
	return len(b.slots)
}

// Bytes returns the accounted size of the block.
func (b *Block[T]) Bytes() int64 {
	return b.bytes
}

// At returns the slot at index i. i must be below Cap.
func (b *Block[T]) At(i int) *T {
	if i < 0 || i >= len(b.slots) {
		panic(fmt.Sprintf("rawblock: index %d out of range [0,%d)", i, len(b.slots)))
	}
	return &b.slots[i]
}

// Span returns the slots in [from, to). to may equal Cap, the boundary
// one past the last slot. The result has no spare capacity, so appending to
// it never writes into the block.
func (b *Block[T]) Span(from, to int) []T {
	if from < 0 || from > to || to > len(b.slots) {
		panic(fmt.Sprintf("rawblock: span [%d,%d) out of range [0,%d]", from, to, len(b.slots)))
	}
	return b.slots[from:to:to]
}

// Swap exchanges the contents of b and other.
func (b *Block[T]) Swap(other *Block[T]) {
	b.slots, other.slots = other.slots, b.slots
	b.bytes, other.bytes = other.bytes, b.bytes
	b.acq, other.acq = other.acq, b.acq
}

// Take moves the region out of b into the returned block and leaves b
// empty.
func (b *Block[T]) Take() Block[T] {
	var out Block[T]
	out.Swap(b)
	return out
}

// Release returns the region's bytes to the acquirer and drops the slots.
// Live values in the slots are not destroyed. Releasing an empty block is a
// no-op.
func (b *Block[T]) Release() {
	if b.slots == nil {
		return
	}
	if b.acq != nil {
		b.acq.ReleaseMemory(b.bytes)
	}
	b.slots = nil
	b.bytes = 0
	b.acq = nil
}
