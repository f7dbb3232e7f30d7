package dynvec

import (
	"errors"
	"fmt"
	"time"
)

// reallocate moves the elements into a block of exactly n slots.
func (v *Vector[T]) reallocate(op string, n int) error {
	start := time.Now()
	nb, err := v.allocate(n)
	if err != nil {
		v.rollback(op, err)
		return err
	}
	strategy, err := v.transfer(nb.Span(0, v.size), v.live(), 0)
	if err != nil {
		v.release(&nb)
		v.rollback(op, err)
		return err
	}
	v.retire(&nb, op, start, strategy)
	return nil
}

// transfer fills the raw slots dst from the live elements src. Elements are
// moved when moves cannot fail or the type is not copyable, and copied
// otherwise. On failure dst holds no live element and src holds the
// original values. base is the index of src[0] in the array and only used
// for error reporting.
func (v *Vector[T]) transfer(dst, src []T, base int) (Strategy, error) {
	if v.nothrow() {
		for i := range src {
			v.mustMove(&dst[i], &src[i])
		}
		return StrategyMove, nil
	}
	if !copyable(v.elemOps()) {
		return StrategyMove, v.moveRange(dst, src, base)
	}
	return StrategyCopy, v.copyRange(dst, src, base)
}

// untransfer undoes a successful transfer of src into dst when a later
// step of the same operation failed. Moved elements are moved back first.
func (v *Vector[T]) untransfer(strategy Strategy, dst, src []T, base int) {
	if strategy == StrategyMove {
		_ = v.moveBack(dst, src, base)
	}
	v.destroyRange(dst)
}

// moveRange move-constructs src into the raw slots dst with moves that may
// fail. On failure the elements already moved are moved back and dst is
// destroyed. If moving back fails too, that element keeps its moved-from
// state and the error is joined to the returned one.
func (v *Vector[T]) moveRange(dst, src []T, base int) error {
	ops := v.elemOps()
	for i := range src {
		if err := ops.Move(&dst[i], &src[i]); err != nil {
			clear(dst[i : i+1])
			err = elementError("move", base+i, err)
			if backErr := v.moveBack(dst[:i], src[:i], base); backErr != nil {
				err = errors.Join(err, backErr)
			}
			v.destroyRange(dst[:i])
			return err
		}
	}
	return nil
}

// moveBack move-assigns moved elements from dst back to src. It keeps
// going after a failure and returns the first one.
func (v *Vector[T]) moveBack(dst, src []T, base int) error {
	ops := v.elemOps()
	var first error
	for i := range dst {
		if err := ops.MoveAssign(&src[i], &dst[i]); err != nil && first == nil {
			first = elementError("move_assign", base+i, err)
		}
	}
	return first
}

// build constructs one element in the raw slot p with ctor, or with
// Ops.Construct when ctor is nil.
func (v *Vector[T]) build(p *T, index int, elemOp string, ctor func(dst *T) error) error {
	if ctor == nil {
		ctor = v.elemOps().Construct
	}
	if err := ctor(p); err != nil {
		var zero T
		*p = zero
		return elementError(elemOp, index, err)
	}
	return nil
}

// constructRange default-constructs every raw slot in dst. On failure the
// elements built so far are destroyed.
func (v *Vector[T]) constructRange(dst []T, base int) error {
	ops := v.elemOps()
	for i := range dst {
		if err := ops.Construct(&dst[i]); err != nil {
			clear(dst[i : i+1])
			v.destroyRange(dst[:i])
			return elementError("construct", base+i, err)
		}
	}
	return nil
}

// copyRange copy-constructs src into the raw slots dst. On failure the
// copies made so far are destroyed.
func (v *Vector[T]) copyRange(dst, src []T, base int) error {
	ops := v.elemOps()
	for i := range src {
		if err := ops.Copy(&dst[i], &src[i]); err != nil {
			clear(dst[i : i+1])
			v.destroyRange(dst[:i])
			return elementError("copy", base+i, err)
		}
	}
	return nil
}

func (v *Vector[T]) destroy(p *T) {
	v.elemOps().Destroy(p)
	var zero T
	*p = zero
}

func (v *Vector[T]) destroyRange(s []T) {
	ops := v.elemOps()
	for i := range s {
		ops.Destroy(&s[i])
	}
	clear(s)
}

// mustMove and mustMoveAssign are only used when the ops declared
// failure-free moves. A failure there breaks that contract and cannot be
// rolled back.
func (v *Vector[T]) mustMove(dst, src *T) {
	if err := v.elemOps().Move(dst, src); err != nil {
		panic(fmt.Sprintf("dynvec: move failed despite nothrow guarantee: %v", err))
	}
}

func (v *Vector[T]) mustMoveAssign(dst, src *T) {
	if err := v.elemOps().MoveAssign(dst, src); err != nil {
		panic(fmt.Sprintf("dynvec: move assignment failed despite nothrow guarantee: %v", err))
	}
}

// shiftLeft move-assigns the elements after pos one slot to the left,
// leaving the last live slot moved-from. If a fallible move-assignment
// fails, the elements before it are already shifted and the array keeps
// its length.
func (v *Vector[T]) shiftLeft(pos int) error {
	if v.nothrow() {
		for i := pos; i < v.size-1; i++ {
			v.mustMoveAssign(v.data.At(i), v.data.At(i+1))
		}
		return nil
	}
	ops := v.elemOps()
	for i := pos; i < v.size-1; i++ {
		if err := ops.MoveAssign(v.data.At(i), v.data.At(i+1)); err != nil {
			return elementError("move_assign", i+1, err)
		}
	}
	return nil
}
