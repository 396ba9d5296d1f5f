package model

// Outcome is the tagged result of a step that degrades instead of failing.
// A zero Reason means success.
type Outcome[T any] struct {
	Value  T
	Reason error
}

// Success wraps a value
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Failed records why a step produced no value
func Failed[T any](reason error) Outcome[T] {
	return Outcome[T]{Reason: reason}
}

// OK reports whether the outcome carries a value
func (o Outcome[T]) OK() bool {
	return o.Reason == nil
}
