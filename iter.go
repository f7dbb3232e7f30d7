package dynvec

import "iter"

// All returns an iterator over index-value pairs in order.
// The Vector must not be mutated during iteration.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range v.size {
			if !yield(i, *v.data.At(i)) {
				return
			}
		}
	}
}

// Values returns an iterator over the elements in order.
func (v *Vector[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range v.size {
			if !yield(*v.data.At(i)) {
				return
			}
		}
	}
}

// Backward returns an iterator over index-value pairs in reverse order.
func (v *Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, *v.data.At(i)) {
				return
			}
		}
	}
}

// Slice returns the live elements as a slice sharing v's storage. It has
// no spare capacity and is valid until the next mutation of v.
func (v *Vector[T]) Slice() []T {
	return v.live()
}
