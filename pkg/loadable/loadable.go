// Package loadable provides a two-variant loaded/not-loaded union so callers
// can distinguish "no data fetched yet" from a zero value without resorting to
// pointer-nil checks scattered through derived-field computations.
package loadable

type Loadable[T any] struct {
	loaded bool
	value  T
}

func NotLoaded[T any]() Loadable[T] {
	return Loadable[T]{}
}

func Loaded[T any](value T) Loadable[T] {
	return Loadable[T]{loaded: true, value: value}
}

func (l Loadable[T]) IsLoaded() bool {
	return l.loaded
}

// Value returns the loaded value and whether it was present.
func (l Loadable[T]) Value() (T, bool) {
	return l.value, l.loaded
}

// OrZero returns the value if loaded, otherwise the zero value of T.
func (l Loadable[T]) OrZero() T {
	return l.value
}
