package viz

// Memo caches the result of compute until Invalidate is called
type Memo[T any] struct {
	compute func() T
	value   T
	valid   bool
}

// NewMemo returns an empty memo cell around compute
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{compute: compute}
}

// Get returns the cached value, computing it on first use after an invalidation
func (m *Memo[T]) Get() T {
	if !m.valid {
		m.value = m.compute()
		m.valid = true
	}
	return m.value
}

// Invalidate drops the cached value
func (m *Memo[T]) Invalidate() {
	var zero T
	m.value = zero
	m.valid = false
}
