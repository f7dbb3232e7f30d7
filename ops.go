package dynvec

// Ops describes the lifecycle of an element type: how a value comes into
// existence in a raw slot, how it is copied and moved, and how it ends.
//
// Slots handed to Construct, Copy and Move are raw: they hold the zero
// value and no live element. If one of these returns an error, the slot
// must be left without a live element. Assign and MoveAssign operate on a
// live dst; if they fail, dst must still be live. Move and MoveAssign leave
// src live in a moved-from state that Destroy accepts.
//
// After Destroy the array zeroes the slot, so Destroy only has to release
// what the value owns.
type Ops[T any] interface {
	Construct(dst *T) error
	Copy(dst, src *T) error
	Assign(dst, src *T) error
	Move(dst, src *T) error
	MoveAssign(dst, src *T) error
	Destroy(p *T)
}

// NothrowMover is implemented by Ops whose Move and MoveAssign never fail.
//
// Only then does an array move elements into a new block when it grows;
// otherwise it copies them, so that a failure halfway through leaves the
// original elements untouched.
type NothrowMover interface {
	NothrowMove() bool
}

// Copier is implemented by Ops that can declare their element type not
// copyable. Such elements are moved into a new block even when moves may
// fail: if a move fails, the elements already moved are moved back.
type Copier interface {
	Copyable() bool
}

// Strategy is how elements were transferred into a new block.
type Strategy int

const (
	// StrategyMove relocated elements with Ops.Move.
	StrategyMove Strategy = iota
	// StrategyCopy duplicated elements with Ops.Copy.
	StrategyCopy
)

func (s Strategy) String() string {
	switch s {
	case StrategyMove:
		return "move"
	case StrategyCopy:
		return "copy"
	default:
		return "unknown"
	}
}

func nothrowMove[T any](ops Ops[T]) bool {
	m, ok := ops.(NothrowMover)
	return ok && m.NothrowMove()
}

func copyable[T any](ops Ops[T]) bool {
	c, ok := ops.(Copier)
	return !ok || c.Copyable()
}

type plainOps[T any] struct{}

// Plain returns Ops with Go value semantics: the zero value is the default
// element, copies are assignments and moves never fail.
func Plain[T any]() Ops[T] {
	return plainOps[T]{}
}

func (plainOps[T]) Construct(dst *T) error {
	var zero T
	*dst = zero
	return nil
}

func (plainOps[T]) Copy(dst, src *T) error {
	*dst = *src
	return nil
}

func (plainOps[T]) Assign(dst, src *T) error {
	*dst = *src
	return nil
}

func (plainOps[T]) Move(dst, src *T) error {
	relocate(dst, src)
	return nil
}

func (plainOps[T]) MoveAssign(dst, src *T) error {
	relocate(dst, src)
	return nil
}

func (plainOps[T]) Destroy(*T) {}

func (plainOps[T]) NothrowMove() bool { return true }

// relocate hands src's value to dst and leaves src zeroed.
func relocate[T any](dst, src *T) {
	var zero T
	*dst, *src = *src, zero
}

// FuncOps builds Ops from optional functions. A nil function falls back to
// the behavior of Plain, except that:
//
//   - a nil AssignFunc copies into a temporary with CopyFunc and replaces
//     the destroyed dst with it, so dst survives a failing copy;
//   - a nil MoveAssignFunc moves into a temporary and then replaces the
//     destroyed dst with it.
//
// Moves are declared failure-free when both move functions are nil or when
// Nothrow is set. NoCopy declares the type not copyable: Copy and Assign
// then fail with ErrNotCopyable.
type FuncOps[T any] struct {
	ConstructFunc  func(dst *T) error
	CopyFunc       func(dst, src *T) error
	AssignFunc     func(dst, src *T) error
	MoveFunc       func(dst, src *T) error
	MoveAssignFunc func(dst, src *T) error
	DestroyFunc    func(p *T)

	// Nothrow declares that MoveFunc and MoveAssignFunc never fail.
	Nothrow bool

	// NoCopy declares the element type not copyable.
	NoCopy bool
}

var (
	_ NothrowMover = FuncOps[int]{}
	_ Copier       = FuncOps[int]{}
)

// Construct implements Ops.
func (f FuncOps[T]) Construct(dst *T) error {
	if f.ConstructFunc == nil {
		var zero T
		*dst = zero
		return nil
	}
	return f.ConstructFunc(dst)
}

// Copy implements Ops.
func (f FuncOps[T]) Copy(dst, src *T) error {
	if f.NoCopy {
		return ErrNotCopyable
	}
	if f.CopyFunc == nil {
		*dst = *src
		return nil
	}
	return f.CopyFunc(dst, src)
}

// Assign implements Ops.
func (f FuncOps[T]) Assign(dst, src *T) error {
	if f.NoCopy {
		return ErrNotCopyable
	}
	if f.AssignFunc != nil {
		return f.AssignFunc(dst, src)
	}
	var tmp T
	if err := f.Copy(&tmp, src); err != nil {
		return err
	}
	f.Destroy(dst)
	*dst = tmp
	return nil
}

// Move implements Ops.
func (f FuncOps[T]) Move(dst, src *T) error {
	if f.MoveFunc == nil {
		relocate(dst, src)
		return nil
	}
	return f.MoveFunc(dst, src)
}

// MoveAssign implements Ops.
func (f FuncOps[T]) MoveAssign(dst, src *T) error {
	if f.MoveAssignFunc != nil {
		return f.MoveAssignFunc(dst, src)
	}
	var tmp T
	if err := f.Move(&tmp, src); err != nil {
		return err
	}
	f.Destroy(dst)
	*dst = tmp
	return nil
}

// Destroy implements Ops.
func (f FuncOps[T]) Destroy(p *T) {
	if f.DestroyFunc != nil {
		f.DestroyFunc(p)
	}
}

// NothrowMove implements NothrowMover.
func (f FuncOps[T]) NothrowMove() bool {
	return f.Nothrow || (f.MoveFunc == nil && f.MoveAssignFunc == nil)
}

// Copyable implements Copier.
func (f FuncOps[T]) Copyable() bool {
	return !f.NoCopy
}
