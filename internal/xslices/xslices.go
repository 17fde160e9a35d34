package xslices

import "slices"

func Filter[T any, S ~[]T](s S, f func(T) bool) (r S) {
	r = make(S, 0, len(s))
	for _, v := range s {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

// Remove removes the first occurrence of v from s, preserving order.
func Remove[T comparable, S ~[]T](s S, v T) S {
	i := slices.Index(s, v)
	if i < 0 {
		return s
	}
	return slices.Delete(s, i, i+1)
}

// MoveToBack moves the first occurrence of v to the end of s,
// preserving the order of everything else.
func MoveToBack[T comparable, S ~[]T](s S, v T) S {
	i := slices.Index(s, v)
	if i < 0 {
		return s
	}
	return append(slices.Delete(s, i, i+1), v)
}
