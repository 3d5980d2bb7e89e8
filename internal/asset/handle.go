package asset

// Handle is a shared reference to a cached asset. Handles stay valid after
// the key is unloaded; the object lives as long as any handle does.
type Handle[T any] struct {
	key Key
	ptr *T
}

// Key returns the key the asset was loaded under.
func (h Handle[T]) Key() Key {
	return h.key
}

// Get returns the asset. Handles for the same cached object return the same pointer.
func (h Handle[T]) Get() *T {
	return h.ptr
}

// Valid reports whether h refers to an asset; the zero Handle does not.
func (h Handle[T]) Valid() bool {
	return h.ptr != nil
}
