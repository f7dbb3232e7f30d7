package dynvec

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/hupe1980/dynvec/internal/conv"
	"github.com/hupe1980/dynvec/internal/rawblock"
)

// Vector is a contiguous dynamic array of T.
//
// Slots [0, Len()) hold live elements; the remaining slots up to Cap() are
// raw. A Vector has a single owner and is not safe for concurrent use. The
// zero value is an empty Vector with Plain ops and default options.
type Vector[T any] struct {
	data rawblock.Block[T]
	size int
	ops  Ops[T]
	opts *options
}

// New creates an empty Vector with Plain ops. It does not allocate.
func New[T any](optFns ...Option) *Vector[T] {
	return NewWithOps(Plain[T](), optFns...)
}

// NewWithOps creates an empty Vector whose elements follow ops.
// A nil ops means Plain.
func NewWithOps[T any](ops Ops[T], optFns ...Option) *Vector[T] {
	if ops == nil {
		ops = Plain[T]()
	}
	return &Vector[T]{ops: ops, opts: applyOptions(optFns)}
}

// NewSized creates a Vector holding n default elements.
func NewSized[T any](n int, optFns ...Option) (*Vector[T], error) {
	return NewSizedWithOps(n, Plain[T](), optFns...)
}

// NewSizedWithOps creates a Vector holding n elements built with
// ops.Construct. If the k-th construction fails, the k elements already
// built are destroyed and the block is released before the error returns.
func NewSizedWithOps[T any](n int, ops Ops[T], optFns ...Option) (*Vector[T], error) {
	checkSize("NewSized", n)
	v := NewWithOps(ops, optFns...)

	nb, err := v.allocate(n)
	if err != nil {
		return nil, err
	}
	if err := v.constructRange(nb.Span(0, n), 0); err != nil {
		v.release(&nb)
		return nil, err
	}

	v.data.Swap(&nb)
	v.size = n
	return v, nil
}

// Clone returns a copy of v with exactly Len() capacity. Each element is
// copied with Ops.Copy; on failure the copies made so far are destroyed.
func (v *Vector[T]) Clone() (*Vector[T], error) {
	c := &Vector[T]{ops: v.elemOps(), opts: v.options()}

	nb, err := c.allocate(v.size)
	if err != nil {
		return nil, err
	}
	if err := c.copyRange(nb.Span(0, v.size), v.live(), 0); err != nil {
		c.release(&nb)
		return nil, err
	}

	c.data.Swap(&nb)
	c.size = v.size
	return c, nil
}

// Take moves v's storage into a new Vector and leaves v empty with zero
// capacity. It never fails and never allocates.
func (v *Vector[T]) Take() *Vector[T] {
	out := &Vector[T]{ops: v.elemOps(), opts: v.options()}
	out.data.Swap(&v.data)
	out.size, v.size = v.size, 0
	return out
}

// CopyFrom makes v an element-wise copy of rhs.
//
// If rhs does not fit in v's capacity, a full copy is built first and
// swapped in, so a failure leaves v unchanged. Otherwise the storage is
// reused: the common prefix is copy-assigned, surplus elements are
// destroyed and missing ones copy-constructed. A failure on that path
// leaves v valid with its previous length.
func (v *Vector[T]) CopyFrom(rhs *Vector[T]) error {
	if v == rhs {
		return nil
	}
	ops := v.elemOps()

	if rhs.size > v.Cap() {
		tmp := &Vector[T]{ops: ops, opts: v.options()}
		nb, err := tmp.allocate(rhs.size)
		if err != nil {
			v.rollback("copy_from", err)
			return err
		}
		if err := tmp.copyRange(nb.Span(0, rhs.size), rhs.live(), 0); err != nil {
			tmp.release(&nb)
			v.rollback("copy_from", err)
			return err
		}
		tmp.data.Swap(&nb)
		tmp.size = rhs.size

		v.data.Swap(&tmp.data)
		v.size, tmp.size = tmp.size, v.size
		tmp.Destroy()
		return nil
	}

	common := min(v.size, rhs.size)
	for i := range common {
		if err := ops.Assign(v.data.At(i), rhs.data.At(i)); err != nil {
			err = elementError("assign", i, err)
			v.abandon("copy_from", err)
			return err
		}
	}

	if rhs.size < v.size {
		v.destroyRange(v.data.Span(rhs.size, v.size))
	} else if err := v.copyRange(v.data.Span(v.size, rhs.size), rhs.data.Span(v.size, rhs.size), v.size); err != nil {
		v.abandon("copy_from", err)
		return err
	}

	v.size = rhs.size
	return nil
}

// MoveFrom transfers rhs's storage to v. v's previous elements are
// destroyed and rhs is left empty with zero capacity. Moving a Vector onto
// itself is a no-op.
func (v *Vector[T]) MoveFrom(rhs *Vector[T]) {
	if v == rhs {
		return
	}
	v.Swap(rhs)
	rhs.Destroy()
}

// Swap exchanges the contents of v and other.
func (v *Vector[T]) Swap(other *Vector[T]) {
	vOps, otherOps := v.elemOps(), other.elemOps()
	v.data.Swap(&other.data)
	v.size, other.size = other.size, v.size
	v.ops, other.ops = otherOps, vOps
}

// Destroy destroys all elements and releases the storage. The Vector stays
// usable and is empty afterwards.
func (v *Vector[T]) Destroy() {
	v.destroyRange(v.live())
	v.size = 0
	v.release(&v.data)
}

// Clear destroys all elements and keeps the capacity.
func (v *Vector[T]) Clear() {
	v.destroyRange(v.live())
	v.size = 0
}

// Reserve makes room for at least n elements. It is a no-op if n does not
// exceed Cap(); otherwise it allocates exactly n slots and transfers the
// elements. On failure v is unchanged.
func (v *Vector[T]) Reserve(n int) error {
	checkSize("Reserve", n)
	if n <= v.Cap() {
		return nil
	}
	return v.reallocate("reserve", n)
}

// ShrinkToFit reduces the capacity to Len(). An empty Vector releases its
// storage entirely.
func (v *Vector[T]) ShrinkToFit() error {
	if v.Cap() == v.size {
		return nil
	}
	if v.size == 0 {
		v.release(&v.data)
		return nil
	}
	return v.reallocate("shrink_to_fit", v.size)
}

// Resize changes Len() to n. Shrinking destroys the trailing elements and
// keeps the capacity. Growing builds default elements at the end; past the
// capacity it moves to a block of max(2*Cap(), n) slots. On failure v is
// unchanged.
func (v *Vector[T]) Resize(n int) error {
	checkSize("Resize", n)

	switch {
	case n == v.size:
		return nil

	case n < v.size:
		v.destroyRange(v.data.Span(n, v.size))
		v.size = n
		return nil

	case n <= v.Cap():
		if err := v.constructRange(v.data.Span(v.size, n), v.size); err != nil {
			v.rollback("resize", err)
			return err
		}
		v.size = n
		return nil
	}

	start := time.Now()
	newCap, err := v.grownCap(n)
	if err != nil {
		v.rollback("resize", err)
		return err
	}
	nb, err := v.allocate(newCap)
	if err != nil {
		v.rollback("resize", err)
		return err
	}
	if err := v.constructRange(nb.Span(v.size, n), v.size); err != nil {
		v.release(&nb)
		v.rollback("resize", err)
		return err
	}
	strategy, err := v.transfer(nb.Span(0, v.size), v.live(), 0)
	if err != nil {
		v.destroyRange(nb.Span(v.size, n))
		v.release(&nb)
		v.rollback("resize", err)
		return err
	}

	v.retire(&nb, "resize", start, strategy)
	v.size = n
	return nil
}

// PushBack appends a copy of value made with Ops.Copy.
func (v *Vector[T]) PushBack(value T) error {
	ops := v.elemOps()
	_, err := v.emplaceBack("push_back", "copy", func(dst *T) error {
		return ops.Copy(dst, &value)
	})
	return err
}

// EmplaceBack appends an element built in place by ctor, which receives
// the raw slot. A nil ctor builds a default element. It returns a pointer
// to the new element, valid until the next reallocation.
//
// When the Vector is full the element is built directly in its slot of
// the new block before the existing elements are transferred, so any
// failure leaves v unchanged.
func (v *Vector[T]) EmplaceBack(ctor func(dst *T) error) (*T, error) {
	return v.emplaceBack("emplace_back", "construct", ctor)
}

func (v *Vector[T]) emplaceBack(op, elemOp string, ctor func(dst *T) error) (*T, error) {
	if v.size < v.Cap() {
		p := v.data.At(v.size)
		if err := v.build(p, v.size, elemOp, ctor); err != nil {
			v.rollback(op, err)
			return nil, err
		}
		v.size++
		return p, nil
	}

	start := time.Now()
	newCap, err := v.grownCap(v.size + 1)
	if err != nil {
		v.rollback(op, err)
		return nil, err
	}
	nb, err := v.allocate(newCap)
	if err != nil {
		v.rollback(op, err)
		return nil, err
	}

	p := nb.At(v.size)
	if err := v.build(p, v.size, elemOp, ctor); err != nil {
		v.release(&nb)
		v.rollback(op, err)
		return nil, err
	}
	strategy, err := v.transfer(nb.Span(0, v.size), v.live(), 0)
	if err != nil {
		v.destroy(p)
		v.release(&nb)
		v.rollback(op, err)
		return nil, err
	}

	v.retire(&nb, op, start, strategy)
	v.size++
	return p, nil
}

// PopBack destroys the last element. It is a no-op on an empty Vector.
func (v *Vector[T]) PopBack() {
	if v.size == 0 {
		return
	}
	v.size--
	v.destroy(v.data.At(v.size))
}

// InsertAt inserts a copy of value before position pos and returns pos.
// pos must be in [0, Len()]. It follows the allocation rules of EmplaceAt.
func (v *Vector[T]) InsertAt(pos int, value T) (int, error) {
	ops := v.elemOps()
	return v.emplaceAt("insert", "copy", pos, func(dst *T) error {
		return ops.Copy(dst, &value)
	})
}

// EmplaceAt inserts an element built by ctor before position pos and
// returns pos. pos must be in [0, Len()]. On failure v is unchanged.
//
// With spare capacity and failure-free moves the tail is shifted right in
// place. Without failure-free moves a shift could fail halfway, so the
// elements are transferred into a fresh block of the same capacity around
// the new one instead. That path allocates even though Len() < Cap() and
// can fail with ErrOutOfMemory under a memory budget.
func (v *Vector[T]) EmplaceAt(pos int, ctor func(dst *T) error) (int, error) {
	return v.emplaceAt("emplace", "construct", pos, ctor)
}

func (v *Vector[T]) emplaceAt(op, elemOp string, pos int, ctor func(dst *T) error) (int, error) {
	v.checkPosition(pos)
	if pos == v.size {
		_, err := v.emplaceBack(op, elemOp, ctor)
		return pos, err
	}

	if v.size < v.Cap() && v.nothrow() {
		var tmp T
		if err := v.build(&tmp, pos, elemOp, ctor); err != nil {
			v.rollback(op, err)
			return pos, err
		}

		last := v.size - 1
		v.mustMove(v.data.At(v.size), v.data.At(last))
		for i := last; i > pos; i-- {
			v.mustMoveAssign(v.data.At(i), v.data.At(i-1))
		}
		v.mustMoveAssign(v.data.At(pos), &tmp)
		v.elemOps().Destroy(&tmp)

		v.size++
		return pos, nil
	}

	start := time.Now()
	newCap := v.Cap()
	if v.size == newCap {
		c, err := v.grownCap(v.size + 1)
		if err != nil {
			v.rollback(op, err)
			return pos, err
		}
		newCap = c
	}
	nb, err := v.allocate(newCap)
	if err != nil {
		v.rollback(op, err)
		return pos, err
	}

	p := nb.At(pos)
	if err := v.build(p, pos, elemOp, ctor); err != nil {
		v.release(&nb)
		v.rollback(op, err)
		return pos, err
	}
	strategy, err := v.transfer(nb.Span(0, pos), v.data.Span(0, pos), 0)
	if err != nil {
		v.destroy(p)
		v.release(&nb)
		v.rollback(op, err)
		return pos, err
	}
	if _, err := v.transfer(nb.Span(pos+1, v.size+1), v.data.Span(pos, v.size), pos); err != nil {
		v.destroy(p)
		v.untransfer(strategy, nb.Span(0, pos), v.data.Span(0, pos), 0)
		v.release(&nb)
		v.rollback(op, err)
		return pos, err
	}

	v.retire(&nb, op, start, strategy)
	v.size++
	return pos, nil
}

// EraseAt removes the element at pos and returns pos, which now indexes
// the element that followed the erased one (or End()).
//
// The tail is shifted left in place by move-assignment and the last slot
// destroyed; EraseAt never allocates. With failure-free moves it cannot
// fail. Otherwise a failing move-assignment leaves v valid with its length
// unchanged, but with the elements before the failure already shifted.
func (v *Vector[T]) EraseAt(pos int) (int, error) {
	v.checkIndex(pos)

	if err := v.shiftLeft(pos); err != nil {
		v.abandon("erase", err)
		return pos, err
	}
	v.size--
	v.destroy(v.data.At(v.size))
	return pos, nil
}

// At returns a pointer to the element at i, valid until the next
// reallocation. It panics if i is not in [0, Len()).
func (v *Vector[T]) At(i int) *T {
	v.checkIndex(i)
	return v.data.At(i)
}

// Get returns the element at i. It panics if i is not in [0, Len()).
func (v *Vector[T]) Get(i int) T {
	return *v.At(i)
}

// Set copy-assigns value to the element at i with Ops.Assign.
func (v *Vector[T]) Set(i int, value T) error {
	v.checkIndex(i)
	if err := v.elemOps().Assign(v.data.At(i), &value); err != nil {
		err = elementError("assign", i, err)
		v.rollback("set", err)
		return err
	}
	return nil
}

// Front returns a pointer to the first element. It panics on an empty
// Vector.
func (v *Vector[T]) Front() *T {
	return v.At(0)
}

// Back returns a pointer to the last element. It panics on an empty
// Vector.
func (v *Vector[T]) Back() *T {
	return v.At(v.size - 1)
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return v.size
}

// Cap returns the number of slots in the current block.
func (v *Vector[T]) Cap() int {
	return v.data.Cap()
}

// IsEmpty reports whether the Vector has no elements.
func (v *Vector[T]) IsEmpty() bool {
	return v.size == 0
}

// Begin returns the position of the first element.
func (v *Vector[T]) Begin() int {
	return 0
}

// End returns the position one past the last element.
func (v *Vector[T]) End() int {
	return v.size
}

func (v *Vector[T]) elemOps() Ops[T] {
	if v.ops == nil {
		v.ops = Plain[T]()
	}
	return v.ops
}

func (v *Vector[T]) options() *options {
	if v.opts == nil {
		v.opts = applyOptions(nil)
	}
	return v.opts
}

func (v *Vector[T]) nothrow() bool {
	return nothrowMove(v.elemOps())
}

func (v *Vector[T]) live() []T {
	return v.data.Span(0, v.size)
}

func (v *Vector[T]) allocate(n int) (rawblock.Block[T], error) {
	nb, err := rawblock.Allocate[T](n, v.options().budget)
	if n > 0 {
		v.options().metricsCollector.RecordAllocation(n, nb.Bytes(), err)
	}
	return nb, err
}

func (v *Vector[T]) release(b *rawblock.Block[T]) {
	if b.Cap() == 0 {
		return
	}
	v.options().metricsCollector.RecordRelease(b.Bytes())
	b.Release()
}

// retire destroys the elements left in the current block, installs nb and
// releases the old block. The transfer into nb must already have succeeded.
// Replacing an empty block is not reported as a reallocation.
func (v *Vector[T]) retire(nb *rawblock.Block[T], op string, start time.Time, strategy Strategy) {
	oldCap := v.Cap()
	v.destroyRange(v.live())
	v.data.Swap(nb)
	v.release(nb)
	if oldCap == 0 {
		return
	}

	o := v.options()
	o.metricsCollector.RecordReallocation(oldCap, v.Cap(), strategy, time.Since(start))
	o.logger.LogReallocation(op, oldCap, v.Cap(), v.size, strategy)
}

func (v *Vector[T]) rollback(op string, err error) {
	o := v.options()
	o.metricsCollector.RecordRollback(op, err)
	o.logger.LogRollback(op, v.size, v.Cap(), err)
}

// abandon reports a failure after which v is valid but not restored.
func (v *Vector[T]) abandon(op string, err error) {
	o := v.options()
	o.metricsCollector.RecordFailure(op, err)
	o.logger.LogFailure(op, v.size, v.Cap(), err)
}

// grownCap returns the capacity for growth to at least need elements:
// double the current capacity, or need if that is larger.
func (v *Vector[T]) grownCap(need int) (int, error) {
	var zero T
	limit := conv.MaxSlots(unsafe.Sizeof(zero))
	if need > limit {
		return 0, fmt.Errorf("%w: %d slots exceed the maximum of %d", ErrOutOfMemory, need, limit)
	}
	c := v.Cap()
	if c > limit/2 {
		c = limit
	} else {
		c *= 2
	}
	return max(c, need), nil
}

func checkSize(op string, n int) {
	if n < 0 {
		panic(fmt.Sprintf("dynvec: %s: negative size %d", op, n))
	}
}

func (v *Vector[T]) checkIndex(i int) {
	if i < 0 || i >= v.size {
		panic(fmt.Sprintf("dynvec: index %d out of range [0,%d)", i, v.size))
	}
}

func (v *Vector[T]) checkPosition(pos int) {
	if pos < 0 || pos > v.size {
		panic(fmt.Sprintf("dynvec: position %d out of range [0,%d]", pos, v.size))
	}
}
