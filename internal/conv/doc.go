// Package conv provides checked size arithmetic for slot allocations.
//
// Block sizes are computed as count * element size. Both factors come from
// callers (a requested capacity and unsafe.Sizeof of the element type), so
// the product is checked for overflow before it reaches the memory budget.
package conv
