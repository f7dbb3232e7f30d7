package dynvec

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynvec/resource"
	"github.com/hupe1980/dynvec/testutil"
)

type state struct {
	len    int
	cap    int
	values []int
}

func stateOf(v *Vector[testutil.Tracked]) state {
	s := state{len: v.Len(), cap: v.Cap(), values: []int{}}
	for x := range v.Values() {
		s.values = append(s.values, x.Value)
	}
	return s
}

func trackedVector(t *testing.T, tr *testutil.Tracker, n int, optFns ...Option) *Vector[testutil.Tracked] {
	t.Helper()
	v := NewWithOps[testutil.Tracked](tr, optFns...)
	for i := range n {
		require.NoError(t, v.PushBack(testutil.NewTracked(i+1)))
	}
	return v
}

func TestVector_StrongGuarantee(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		reserve int
		failOp  testutil.Op
		failAt  int
		mutate  func(v *Vector[testutil.Tracked]) error
	}{
		{
			name:   "push back copy of new element",
			size:   4,
			failOp: testutil.OpCopy,
			failAt: 1,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.PushBack(testutil.NewTracked(9)) },
		},
		{
			name:   "push back transfer",
			size:   4,
			failOp: testutil.OpCopy,
			failAt: 3,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.PushBack(testutil.NewTracked(9)) },
		},
		{
			name:    "push back within capacity",
			size:    2,
			reserve: 4,
			failOp:  testutil.OpCopy,
			failAt:  1,
			mutate:  func(v *Vector[testutil.Tracked]) error { return v.PushBack(testutil.NewTracked(9)) },
		},
		{
			name:   "insert at capacity prefix",
			size:   4,
			failOp: testutil.OpCopy,
			failAt: 2,
			mutate: func(v *Vector[testutil.Tracked]) error {
				_, err := v.InsertAt(2, testutil.NewTracked(9))
				return err
			},
		},
		{
			name:   "insert at capacity suffix",
			size:   4,
			failOp: testutil.OpCopy,
			failAt: 5,
			mutate: func(v *Vector[testutil.Tracked]) error {
				_, err := v.InsertAt(2, testutil.NewTracked(9))
				return err
			},
		},
		{
			name:    "insert within capacity",
			size:    4,
			reserve: 8,
			failOp:  testutil.OpCopy,
			failAt:  4,
			mutate:  func(v *Vector[testutil.Tracked]) error {
				_, err := v.InsertAt(1, testutil.NewTracked(9))
				return err
			},
		},
		{
			name:   "emplace at constructor",
			size:   3,
			failOp: testutil.OpConstruct,
			failAt: 1,
			mutate: func(v *Vector[testutil.Tracked]) error {
				_, err := v.EmplaceAt(1, nil)
				return err
			},
		},
		{
			name:   "reserve",
			size:   3,
			failOp: testutil.OpCopy,
			failAt: 2,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.Reserve(10) },
		},
		{
			name:   "resize construct past capacity",
			size:   2,
			failOp: testutil.OpConstruct,
			failAt: 3,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.Resize(5) },
		},
		{
			name:   "resize transfer past capacity",
			size:   2,
			failOp: testutil.OpCopy,
			failAt: 2,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.Resize(5) },
		},
		{
			name:    "resize within capacity",
			size:    2,
			reserve: 10,
			failOp:  testutil.OpConstruct,
			failAt:  2,
			mutate:  func(v *Vector[testutil.Tracked]) error { return v.Resize(6) },
		},
		{
			name:   "shrink to fit",
			size:   3,
			failOp: testutil.OpCopy,
			failAt: 2,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.ShrinkToFit() },
		},
		{
			name:   "set",
			size:   3,
			failOp: testutil.OpAssign,
			failAt: 1,
			mutate: func(v *Vector[testutil.Tracked]) error { return v.Set(1, testutil.NewTracked(9)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &BasicMetricsCollector{}
			tr := testutil.NewTracker(false)
			v := trackedVector(t, tr, tt.size, WithMetricsCollector(mc))
			if tt.reserve > 0 {
				require.NoError(t, v.Reserve(tt.reserve))
			}
			before := stateOf(v)
			rollbacks := mc.GetStats().Rollbacks

			tr.FailOn(tt.failOp, tt.failAt)
			err := tt.mutate(v)
			require.ErrorIs(t, err, testutil.ErrInjected)

			var ee *ElementError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, string(tt.failOp), ee.Op)

			assert.Equal(t, before, stateOf(v))
			assert.Equal(t, v.Len(), tr.Live(), "leaked or lost elements")
			assert.Equal(t, rollbacks+1, mc.GetStats().Rollbacks)

			v.Destroy()
			assert.Equal(t, 0, tr.Live())
		})
	}
}

func TestVector_ConstructorFailure(t *testing.T) {
	t.Run("sized", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		tr := testutil.NewTracker(false)
		tr.FailOn(testutil.OpConstruct, 3)

		v, err := NewSizedWithOps[testutil.Tracked](5, tr, WithMemoryBudget(rc))
		require.ErrorIs(t, err, testutil.ErrInjected)
		assert.Nil(t, v)
		assert.Equal(t, 0, tr.Live())
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})

	t.Run("clone", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 4)
		before := stateOf(v)

		tr.FailOn(testutil.OpCopy, 3)
		c, err := v.Clone()
		require.ErrorIs(t, err, testutil.ErrInjected)
		assert.Nil(t, c)
		assert.Equal(t, before, stateOf(v))
		assert.Equal(t, 4, tr.Live())
	})

	t.Run("emplace back", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 2)
		before := stateOf(v)
		boom := errors.New("boom")

		p, err := v.EmplaceBack(func(*testutil.Tracked) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.Nil(t, p)
		assert.Equal(t, before, stateOf(v))
	})
}

func TestVector_CopyFromFailure(t *testing.T) {
	t.Run("reallocating copy is strong", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		dst := trackedVector(t, tr, 1)
		src := trackedVector(t, tr, 4)
		before := stateOf(dst)

		tr.FailOn(testutil.OpCopy, 3)
		require.ErrorIs(t, dst.CopyFrom(src), testutil.ErrInjected)
		assert.Equal(t, before, stateOf(dst))
		assert.Equal(t, 5, tr.Live())
	})

	t.Run("reusing copy keeps a valid array", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		dst := trackedVector(t, tr, 3, WithMetricsCollector(mc))
		require.NoError(t, dst.Reserve(8))
		src := trackedVector(t, tr, 5)

		tr.FailOn(testutil.OpCopy, 1)
		require.ErrorIs(t, dst.CopyFrom(src), testutil.ErrInjected)
		assert.Equal(t, int64(0), mc.GetStats().Rollbacks, "not a rollback")
		assert.Equal(t, int64(1), mc.GetStats().Failures)
		assert.Equal(t, 3, dst.Len())
		assert.Equal(t, 8, dst.Cap())
		assert.Equal(t, dst.Len()+src.Len(), tr.Live())

		dst.Destroy()
		src.Destroy()
		assert.Equal(t, 0, tr.Live())
	})
}

func TestVector_TransferStrategy(t *testing.T) {
	t.Run("copies without nothrow moves", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		trackedVector(t, tr, 9, WithMetricsCollector(mc))

		assert.Equal(t, 0, tr.Calls(testutil.OpMove))
		stats := mc.GetStats()
		assert.Equal(t, int64(4), stats.Reallocations)
		assert.Equal(t, int64(4), stats.CopyTransfers)
		assert.Equal(t, int64(0), stats.MoveTransfers)
		assert.Equal(t, 9, tr.Live())
	})

	t.Run("moves with nothrow moves", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(true)
		v := trackedVector(t, tr, 9, WithMetricsCollector(mc))

		// Only the pushed values are copied.
		assert.Equal(t, 9, tr.Calls(testutil.OpCopy))
		assert.Equal(t, 1+2+4+8, tr.Calls(testutil.OpMove))
		stats := mc.GetStats()
		assert.Equal(t, int64(4), stats.MoveTransfers)
		assert.Equal(t, int64(0), stats.CopyTransfers)
		assert.Equal(t, 9, tr.Live())

		v.Destroy()
		assert.Equal(t, 0, tr.Live())
	})

	t.Run("scheduled move failure is ignored when nothrow", func(t *testing.T) {
		tr := testutil.NewTracker(true)
		v := trackedVector(t, tr, 4)
		tr.FailOn(testutil.OpMove, 1)

		require.NoError(t, v.PushBack(testutil.NewTracked(5)))
		assert.Equal(t, []int{1, 2, 3, 4, 5}, stateOf(v).values)
	})

	t.Run("in place shifts with nothrow moves", func(t *testing.T) {
		tr := testutil.NewTracker(true)
		v := trackedVector(t, tr, 4)
		require.NoError(t, v.Reserve(8))

		_, err := v.InsertAt(1, testutil.NewTracked(9))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 9, 2, 3, 4}, stateOf(v).values)

		_, err = v.EraseAt(0)
		require.NoError(t, err)
		assert.Equal(t, []int{9, 2, 3, 4}, stateOf(v).values)
		assert.Equal(t, 8, v.Cap())
		assert.Equal(t, 4, tr.Live())
	})

	t.Run("in place constructor failure", func(t *testing.T) {
		tr := testutil.NewTracker(true)
		v := trackedVector(t, tr, 3)
		require.NoError(t, v.Reserve(8))
		before := stateOf(v)

		tr.FailOn(testutil.OpConstruct, 1)
		_, err := v.EmplaceAt(1, nil)
		require.ErrorIs(t, err, testutil.ErrInjected)
		assert.Equal(t, before, stateOf(v))
		assert.Equal(t, 3, tr.Live())
	})
}

func TestVector_MemoryBudget(t *testing.T) {
	slot := int64(unsafe.Sizeof(testutil.Tracked{}))

	t.Run("refused growth leaves array unchanged", func(t *testing.T) {
		// Growing from 2 to 4 slots holds 6 at once; 4 to 8 would hold 12.
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 6 * slot})
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 4, WithMemoryBudget(rc), WithMetricsCollector(mc))
		require.Equal(t, 4, v.Cap())
		before := stateOf(v)

		err := v.PushBack(testutil.NewTracked(5))
		require.ErrorIs(t, err, ErrOutOfMemory)
		require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
		assert.Equal(t, before, stateOf(v))
		assert.Equal(t, 4, tr.Live())
		assert.Equal(t, 4*slot, rc.MemoryUsage())
		assert.Equal(t, int64(1), mc.GetStats().AllocationErrors)

		v.Destroy()
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})

	t.Run("block is charged until released", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
		v := New[int64](WithMemoryBudget(rc))

		require.NoError(t, v.Reserve(16))
		assert.Equal(t, int64(16*8), rc.MemoryUsage())

		require.NoError(t, v.Reserve(32))
		assert.Equal(t, int64(32*8), rc.MemoryUsage())
		assert.Equal(t, int64(48*8), rc.PeakMemoryUsage())

		v.Destroy()
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})

	t.Run("sized over budget", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
		v, err := NewSized[int64](9, WithMemoryBudget(rc))
		require.ErrorIs(t, err, ErrOutOfMemory)
		assert.Nil(t, v)
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})

	t.Run("size overflow", func(t *testing.T) {
		v := New[int64]()
		err := v.Reserve(int(^uint(0) >> 1))
		require.ErrorIs(t, err, ErrOutOfMemory)
		assert.Equal(t, 0, v.Cap())
	})
}

func TestVector_EraseInPlace(t *testing.T) {
	for _, nothrow := range []bool{true, false} {
		t.Run(fmt.Sprintf("nothrow=%t", nothrow), func(t *testing.T) {
			mc := &BasicMetricsCollector{}
			tr := testutil.NewTracker(nothrow)
			v := trackedVector(t, tr, 100, WithMetricsCollector(mc))
			allocs := mc.GetStats().Allocations
			copies := tr.Calls(testutil.OpCopy)
			capBefore := v.Cap()

			_, err := v.EraseAt(v.Len() - 1)
			require.NoError(t, err)
			assert.Equal(t, 0, tr.Calls(testutil.OpMoveAssign), "erasing the last element shifts nothing")

			_, err = v.EraseAt(0)
			require.NoError(t, err)
			assert.Equal(t, 98, tr.Calls(testutil.OpMoveAssign))

			assert.Equal(t, allocs, mc.GetStats().Allocations)
			assert.Equal(t, copies, tr.Calls(testutil.OpCopy))
			assert.Equal(t, capBefore, v.Cap())
			assert.Equal(t, 98, v.Len())
			assert.Equal(t, 2, v.Get(0).Value)
			assert.Equal(t, 99, v.Back().Value)
			assert.Equal(t, 98, tr.Live())
		})
	}

	t.Run("drain from the back", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 64)
		for !v.IsEmpty() {
			_, err := v.EraseAt(v.Len() - 1)
			require.NoError(t, err)
		}
		assert.Equal(t, 0, tr.Calls(testutil.OpMoveAssign))
		assert.Equal(t, 0, tr.Live())
	})

	t.Run("within an exhausted budget", func(t *testing.T) {
		slot := int64(unsafe.Sizeof(testutil.Tracked{}))
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 6 * slot})
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 4, WithMemoryBudget(rc))
		require.Equal(t, 4, v.Cap())

		_, err := v.EraseAt(3)
		require.NoError(t, err)
		_, err = v.EraseAt(1)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, stateOf(v).values)
		assert.Equal(t, 4*slot, rc.MemoryUsage())
	})

	t.Run("failing move assignment leaves a valid array", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 5, WithMetricsCollector(mc))

		tr.FailOn(testutil.OpMoveAssign, 2)
		_, err := v.EraseAt(1)
		require.ErrorIs(t, err, testutil.ErrInjected)

		var ee *ElementError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "move_assign", ee.Op)
		assert.Equal(t, 3, ee.Index)

		// Slot 1 received 3, slot 2 is moved-from, the rest is untouched.
		assert.Equal(t, []int{1, 3, 0, 4, 5}, stateOf(v).values)
		assert.Equal(t, 5, tr.Live())
		assert.Equal(t, int64(0), mc.GetStats().Rollbacks)
		assert.Equal(t, int64(1), mc.GetStats().Failures)

		v.Destroy()
		assert.Equal(t, 0, tr.Live())
	})
}

func TestVector_InsertWithinCapacity(t *testing.T) {
	t.Run("shifts in place with nothrow moves", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		v := New[int](WithMetricsCollector(mc))
		require.NoError(t, v.Reserve(8))
		pushAll(t, v, 1, 2, 3)

		_, err := v.InsertAt(1, 9)
		require.NoError(t, err)
		_, err = v.EmplaceAt(0, nil)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 1, 9, 2, 3}, v.Slice())
		assert.Equal(t, int64(1), mc.GetStats().Allocations)
		assert.Equal(t, int64(0), mc.GetStats().Reallocations)
	})

	t.Run("rebuilds at the same capacity without nothrow moves", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		v := trackedVector(t, tr, 3, WithMetricsCollector(mc))
		require.NoError(t, v.Reserve(8))
		allocs := mc.GetStats().Allocations

		_, err := v.InsertAt(1, testutil.NewTracked(9))
		require.NoError(t, err)

		assert.Equal(t, []int{1, 9, 2, 3}, stateOf(v).values)
		assert.Equal(t, 8, v.Cap())
		assert.Equal(t, allocs+1, mc.GetStats().Allocations)
	})
}

func TestVector_NonCopyable(t *testing.T) {
	t.Run("grows by moving", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := testutil.NewTracker(false)
		tr.DisableCopy()
		v := trackedVector(t, tr, 5, WithMetricsCollector(mc))

		assert.Equal(t, 1+2+4, tr.Calls(testutil.OpMove))
		assert.Equal(t, int64(3), mc.GetStats().MoveTransfers)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, stateOf(v).values)
		assert.Equal(t, 5, tr.Live())
	})

	t.Run("failed move is moved back", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		tr.DisableCopy()
		v := trackedVector(t, tr, 4)
		before := stateOf(v)

		tr.FailOn(testutil.OpMove, 3)
		err := v.PushBack(testutil.NewTracked(5))
		require.ErrorIs(t, err, testutil.ErrInjected)

		var ee *ElementError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "move", ee.Op)
		assert.Equal(t, 2, ee.Index)
		assert.Equal(t, before, stateOf(v))
		assert.Equal(t, 4, tr.Live())
	})

	t.Run("insert restores the prefix when the suffix fails", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		tr.DisableCopy()
		v := trackedVector(t, tr, 4)
		before := stateOf(v)

		tr.FailOn(testutil.OpMove, 4)
		_, err := v.InsertAt(2, testutil.NewTracked(9))
		require.ErrorIs(t, err, testutil.ErrInjected)
		assert.Equal(t, before, stateOf(v))
		assert.Equal(t, 4, tr.Live())
	})

	t.Run("clone fails", func(t *testing.T) {
		tr := testutil.NewTracker(false)
		tr.DisableCopy()
		v := trackedVector(t, tr, 2)

		c, err := v.Clone()
		require.ErrorIs(t, err, testutil.ErrNoCopy)
		assert.Nil(t, c)
		assert.Equal(t, 2, tr.Live())
	})
}
