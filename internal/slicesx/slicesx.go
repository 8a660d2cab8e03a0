// Package slicesx holds small generic slice helpers shared across this
// module's diagnostic handling.
package slicesx

// Filter returns the elements of s for which fn reports true, in order.
func Filter[T any](s []T, fn func(T) bool) []T {
	var r []T
	for _, t := range s {
		if fn(t) {
			r = append(r, t)
		}
	}
	return r
}
