// Package rawblock provides the raw storage owned by a dynamic array.
//
// A Block reserves a fixed number of slots for values of type T. It never
// constructs or destroys T values: which slots are live is the owner's
// business. Slots that hold no live value contain the zero value of T, which
// is how uninitialized memory looks in Go and keeps stale pointers away from
// the garbage collector.
//
// # Ownership
//
// A Block has exactly one owner. It is transferred with Swap or Take, which
// leave the source empty, and never duplicated by copying the struct.
//
// # Allocation failure
//
// Allocate computes the byte size of the request with overflow checks and
// reserves it from an optional Acquirer before allocating. A refusal, an
// overflow or a length the runtime rejects is reported as ErrOutOfMemory and
// leaves nothing allocated or reserved.
package rawblock
