// Package dynvec provides a contiguous dynamic array with explicit element
// lifecycle control and strong failure guarantees.
//
// A Vector owns one raw block of slots and a count of live elements. It
// decides itself when elements are constructed, copied, moved and
// destroyed, through the Ops of its element type, instead of leaving that
// to append.
//
// # Quick Start
//
//	v := dynvec.New[int]()
//	for i := 1; i <= 5; i++ {
//	    _ = v.PushBack(i)
//	}
//	_, _ = v.InsertAt(2, 99) // [1 2 99 3 4 5]
//	_, _ = v.EraseAt(0)      // [2 99 3 4 5]
//	_ = v.Resize(2)          // [2 99], capacity unchanged
//
// # Element Lifecycle
//
// Plain ops give Go value semantics and are the default. Types that own
// resources describe their lifecycle with Ops, or with FuncOps for the
// common case of a few custom functions:
//
//	ops := dynvec.FuncOps[*Buffer]{
//	    CopyFunc: func(dst, src **Buffer) error {
//	        c, err := (*src).Clone()
//	        if err != nil {
//	            return err
//	        }
//	        *dst = c
//	        return nil
//	    },
//	    DestroyFunc: func(p **Buffer) {
//	        if *p != nil { // moved-from
//	            (*p).Free()
//	        }
//	    },
//	}
//	v := dynvec.NewWithOps[*Buffer](ops)
//
// # Failure Guarantees
//
// Every operation that allocates a new block (Reserve, Resize, PushBack,
// EmplaceBack, InsertAt, EmplaceAt, Clone, CopyFrom when it outgrows the
// capacity, ShrinkToFit) either succeeds or leaves length, capacity and
// contents exactly as they were. The new block is filled first and only
// swapped in after the transfer succeeded. EmplaceAt within the capacity
// gives the same guarantee. EraseAt shifts in place and never allocates; it
// cannot fail with failure-free moves, and otherwise leaves a valid but
// partly shifted array when a move-assignment fails.
//
// During a transfer elements are moved only when the ops implement
// NothrowMover; otherwise they are copied, because a move that fails
// halfway cannot be undone. Element types that are not copyable (Copier)
// are moved anyway, and moved back if a move fails.
//
// Out-of-range indexes and positions are programming errors and panic.
//
// # Memory Budget
//
// Go aborts the process when the heap is exhausted. To get a recoverable
// out-of-memory condition, give arrays a budget:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	v := dynvec.New[float64](dynvec.WithMemoryBudget(rc))
//	if err := v.Reserve(1 << 30); errors.Is(err, dynvec.ErrOutOfMemory) {
//	    // v is unchanged
//	}
//
// # Thread Safety
//
// A Vector has a single owner and no internal locking.
package dynvec
