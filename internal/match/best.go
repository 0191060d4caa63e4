package match

// Best tracks the running extremum of a (value, payload) stream. Updates
// replace the held entry only on strict improvement, so the first payload
// seen at a given extremum wins and later ties are ignored. An
// uninitialized tracker reports Held() == false rather than a sentinel
// value, which keeps score 0 unambiguous.
type Best[T any] struct {
	value    int
	which    T
	held     bool
	minimize bool
}

// NewBest creates a maximizing tracker.
func NewBest[T any]() *Best[T] {
	return &Best[T]{}
}

// NewMinBest creates a minimizing tracker.
func NewMinBest[T any]() *Best[T] {
	return &Best[T]{minimize: true}
}

// Update offers a (value, payload) pair to the tracker.
func (b *Best[T]) Update(value int, which T) {
	better := value > b.value
	if b.minimize {
		better = value < b.value
	}
	if !b.held || better {
		b.value = value
		b.which = which
		b.held = true
	}
}

// Held reports whether any value has been offered.
func (b *Best[T]) Held() bool {
	return b.held
}

// Value returns the current extreme value. Only meaningful when Held().
func (b *Best[T]) Value() int {
	return b.value
}

// Which returns the payload of the current extreme value.
func (b *Best[T]) Which() T {
	return b.which
}
