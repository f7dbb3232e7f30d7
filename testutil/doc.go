// Package testutil provides testing utilities for dynvec.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Operation Sequences
//
//	rng := testutil.NewRNG(seed)
//	pos := rng.Intn(v.Len() + 1)
//
// # Lifecycle Tracking
//
// Tracker implements the element ops of dynvec for the Tracked type. It
// gives every constructed element an identity, panics on use of raw or
// destroyed slots, counts live elements and can inject failures:
//
//	tr := testutil.NewTracker(false) // moves may fail
//	v := dynvec.NewWithOps[testutil.Tracked](tr)
//	tr.FailOn(testutil.OpCopy, 3) // the 3rd copy from now fails
//	...
//	v.Destroy()
//	require.Zero(t, tr.Live())
package testutil
