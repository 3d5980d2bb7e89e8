// Package asset turns raw bytes from a Source into typed objects cached
// under stable keys.
package asset

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Source provides raw bytes for virtual paths. *vfs.VFS satisfies it.
type Source interface {
	Read(name string) ([]byte, error)
}

// Resolver maps a key to the virtual path holding the asset.
type Resolver interface {
	Resolve(ctx context.Context, key Key) (string, error)
}

// Loadable is the contract for asset types. The zero T is the empty asset
// and Deserialize populates it; a non-nil error rejects the bytes.
type Loadable[T any] interface {
	*T
	Deserialize(data []byte) error
}

// Manager caches deserialized assets by key. Entries stay until Unload.
//
// The cache mutex covers map operations only. Reading and decoding happen
// outside it, and concurrent misses on one key share a single decode. When
// two decodes for a key do race, the first insertion wins and later ones
// are discarded, so at most one object is ever cached per key.
type Manager struct {
	src      Source
	resolver Resolver

	mu    sync.Mutex
	cache map[Key]any

	inflight singleflight.Group
	workers  *semaphore.Weighted
	pending  sync.WaitGroup
}

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	resolver Resolver
	workers  int
}

// WithResolver enables LoadKey.
func WithResolver(r Resolver) Option {
	return func(c *managerConfig) {
		c.resolver = r
	}
}

// WithWorkers bounds the number of LoadAsync loads running at once.
// Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *managerConfig) {
		c.workers = n
	}
}

// NewManager returns a manager loading from src.
func NewManager(src Source, opts ...Option) *Manager {
	cfg := managerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	return &Manager{
		src:      src,
		resolver: cfg.resolver,
		cache:    make(map[Key]any),
		workers:  semaphore.NewWeighted(int64(cfg.workers)),
	}
}

// Load returns the asset cached under key, loading and deserializing name
// on a miss. A cached key never touches the Source.
func Load[T any, PT Loadable[T]](m *Manager, key Key, name string) (Handle[T], error) {
	if obj, ok := m.lookup(key); ok {
		return handleFor[T](key, obj)
	}

	v, err, shared := m.inflight.Do(key.String(), func() (any, error) {
		// a previous flight may have finished between lookup and Do
		if obj, ok := m.lookup(key); ok {
			return obj, nil
		}

		data, err := m.src.Read(name)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}

		obj := PT(new(T))
		if err := obj.Deserialize(data); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDeserialize, name, err)
		}

		return m.insert(key, obj), nil
	})
	if err != nil {
		return Handle[T]{}, err
	}
	if shared {
		slog.Debug("Shared in-flight load", "key", key.String(), "path", name)
	}
	return handleFor[T](key, v)
}

// LoadKey resolves key to a virtual path with the manager's Resolver and
// loads it. A cached key is returned without consulting the Resolver.
func LoadKey[T any, PT Loadable[T]](ctx context.Context, m *Manager, key Key) (Handle[T], error) {
	if obj, ok := m.lookup(key); ok {
		return handleFor[T](key, obj)
	}
	if m.resolver == nil {
		return Handle[T]{}, ErrNoResolver
	}
	name, err := m.resolver.Resolve(ctx, key)
	if err != nil {
		return Handle[T]{}, fmt.Errorf("resolving %s: %w", key, err)
	}
	return Load[T, PT](m, key, name)
}

// LoadAsync runs Load on a worker goroutine and returns immediately.
func LoadAsync[T any, PT Loadable[T]](m *Manager, key Key, name string) *Future[T] {
	f := newFuture[T]()
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		if err := m.workers.Acquire(context.Background(), 1); err != nil {
			f.resolve(Handle[T]{}, err)
			return
		}
		defer m.workers.Release(1)
		f.resolve(Load[T, PT](m, key, name))
	}()
	return f
}

// Get returns the cached asset for key without any I/O.
func Get[T any](m *Manager, key Key) (Handle[T], error) {
	obj, ok := m.lookup(key)
	if !ok {
		return Handle[T]{}, fmt.Errorf("%w: %s", ErrNotLoaded, key)
	}
	return handleFor[T](key, obj)
}

// Unload drops key from the cache and reports whether it was present.
// Outstanding handles keep their object.
func (m *Manager) Unload(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cache[key]
	delete(m.cache, key)
	return ok
}

// Contains reports whether key is cached.
func (m *Manager) Contains(key Key) bool {
	_, ok := m.lookup(key)
	return ok
}

// Len returns the number of cached assets.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// Keys returns the cached keys in ascending order.
func (m *Manager) Keys() []Key {
	m.mu.Lock()
	keys := make([]Key, 0, len(m.cache))
	for k := range m.cache {
		keys = append(keys, k)
	}
	m.mu.Unlock()

	slices.SortFunc(keys, func(a, b Key) int {
		if c := cmp.Compare(a.Hi, b.Hi); c != 0 {
			return c
		}
		return cmp.Compare(a.Lo, b.Lo)
	})
	return keys
}

// Wait blocks until every LoadAsync started so far has finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

func (m *Manager) lookup(key Key) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.cache[key]
	return obj, ok
}

// insert stores obj under key unless an object is already there, and
// returns whichever object the cache ends up holding.
func (m *Manager) insert(key Key, obj any) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache[key]; ok {
		slog.Debug("Discarding duplicate decode", "key", key.String())
		return existing
	}
	m.cache[key] = obj
	return obj
}

func handleFor[T any](key Key, obj any) (Handle[T], error) {
	ptr, ok := obj.(*T)
	if !ok {
		return Handle[T]{}, fmt.Errorf("%w: %s holds %T, requested %T", ErrTypeMismatch, key, obj, (*T)(nil))
	}
	return Handle[T]{key: key, ptr: ptr}, nil
}
