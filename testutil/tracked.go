package testutil

import (
	"errors"
	"fmt"
)

var (
	// ErrInjected is returned by Tracker operations scheduled to fail.
	ErrInjected = errors.New("injected failure")

	// ErrNoCopy is returned by Copy and Assign after DisableCopy.
	ErrNoCopy = errors.New("tracked type is not copyable")
)

// Op names a Tracker operation.
type Op string

const (
	OpConstruct  Op = "construct"
	OpCopy       Op = "copy"
	OpAssign     Op = "assign"
	OpMove       Op = "move"
	OpMoveAssign Op = "move_assign"
)

// Tracked is an element whose lifecycle a Tracker follows. The zero value
// is a raw slot.
type Tracked struct {
	Value int
	id    uint64
}

// NewTracked returns the argument for a copy-construction of a tracked
// value. It is not live itself; pass it to PushBack or InsertAt, which copy
// it through the Tracker.
func NewTracked(value int) Tracked {
	return Tracked{Value: value, id: sourceID}
}

// sourceID marks values made by NewTracked, which may be read but are not
// counted as live.
const sourceID = ^uint64(0)

// Tracker implements the element ops of dynvec for Tracked.
//
// It panics when an operation reads a raw or destroyed slot, constructs
// into a live slot or destroys twice, and counts live elements so tests can
// assert that nothing leaked. It is not safe for concurrent use.
type Tracker struct {
	nothrow bool
	noCopy  bool
	nextID  uint64
	live    map[uint64]struct{}
	calls   map[Op]int
	failAt  map[Op]int
}

// NewTracker creates a Tracker. With nothrow set, moves are declared
// failure-free and never fail, even when scheduled to.
func NewTracker(nothrow bool) *Tracker {
	return &Tracker{
		nothrow: nothrow,
		live:    make(map[uint64]struct{}),
		calls:   make(map[Op]int),
		failAt:  make(map[Op]int),
	}
}

// FailOn schedules the n-th call of op from now (1-based) to fail once.
func (t *Tracker) FailOn(op Op, n int) {
	if n <= 0 {
		panic(fmt.Sprintf("testutil: FailOn %s: n must be positive, got %d", op, n))
	}
	t.failAt[op] = t.calls[op] + n
}

// DisableCopy declares Tracked not copyable. Copy and Assign of live
// elements fail from then on; values made by NewTracked can still be
// copied in. Arrays then move elements even though moves may fail.
func (t *Tracker) DisableCopy() {
	t.noCopy = true
}

// Live returns the number of constructed and not yet destroyed elements.
func (t *Tracker) Live() int {
	return len(t.live)
}

// Calls returns how often op was invoked, failed calls included.
func (t *Tracker) Calls(op Op) int {
	return t.calls[op]
}

// Construct builds a default element with Value 0.
func (t *Tracker) Construct(dst *Tracked) error {
	if err := t.enter(OpConstruct, dst, nil); err != nil {
		return err
	}
	*dst = Tracked{id: t.born()}
	return nil
}

// Copy builds a copy of src in dst.
func (t *Tracker) Copy(dst, src *Tracked) error {
	if err := t.enter(OpCopy, dst, src); err != nil {
		return err
	}
	if t.noCopy && src.id != sourceID {
		return ErrNoCopy
	}
	*dst = Tracked{Value: src.Value, id: t.born()}
	return nil
}

// Assign copies src's value onto the live dst.
func (t *Tracker) Assign(dst, src *Tracked) error {
	if err := t.enterAssign(OpAssign, dst, src); err != nil {
		return err
	}
	if t.noCopy && src.id != sourceID {
		return ErrNoCopy
	}
	dst.Value = src.Value
	return nil
}

// Move builds dst from src and leaves src live with Value 0.
func (t *Tracker) Move(dst, src *Tracked) error {
	if err := t.enter(OpMove, dst, src); err != nil {
		return err
	}
	*dst = Tracked{Value: src.Value, id: t.born()}
	src.Value = 0
	return nil
}

// MoveAssign moves src's value onto the live dst and leaves src live with
// Value 0.
func (t *Tracker) MoveAssign(dst, src *Tracked) error {
	if err := t.enterAssign(OpMoveAssign, dst, src); err != nil {
		return err
	}
	dst.Value, src.Value = src.Value, 0
	return nil
}

// Destroy ends the lifetime of p.
func (t *Tracker) Destroy(p *Tracked) {
	t.mustBeLive("destroy", p)
	delete(t.live, p.id)
}

// Copyable reports whether DisableCopy was not called.
func (t *Tracker) Copyable() bool {
	return !t.noCopy
}

// NothrowMove reports whether moves are declared failure-free.
func (t *Tracker) NothrowMove() bool {
	return t.nothrow
}

func (t *Tracker) enter(op Op, dst, src *Tracked) error {
	if dst.id != 0 {
		panic(fmt.Sprintf("testutil: %s into slot holding element %d", op, dst.id))
	}
	if src != nil {
		t.mustBeReadable(string(op), src)
	}
	return t.tick(op)
}

func (t *Tracker) enterAssign(op Op, dst, src *Tracked) error {
	t.mustBeLive(string(op), dst)
	t.mustBeReadable(string(op), src)
	return t.tick(op)
}

func (t *Tracker) tick(op Op) error {
	t.calls[op]++
	if at, ok := t.failAt[op]; ok && at == t.calls[op] {
		delete(t.failAt, op)
		if t.nothrow && (op == OpMove || op == OpMoveAssign) {
			return nil
		}
		return fmt.Errorf("%s #%d: %w", op, at, ErrInjected)
	}
	return nil
}

func (t *Tracker) born() uint64 {
	t.nextID++
	t.live[t.nextID] = struct{}{}
	return t.nextID
}

func (t *Tracker) mustBeReadable(op string, p *Tracked) {
	if p.id == sourceID {
		return
	}
	t.mustBeLive(op, p)
}

func (t *Tracker) mustBeLive(op string, p *Tracked) {
	if _, ok := t.live[p.id]; !ok {
		panic(fmt.Sprintf("testutil: %s of element %d which is not live", op, p.id))
	}
}
