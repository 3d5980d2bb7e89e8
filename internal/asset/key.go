package asset

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Key is a stable 128-bit asset identifier. It is comparable and used
// directly as the cache key, so an asset keeps its identity when its file
// moves.
type Key struct {
	Hi uint64
	Lo uint64
}

// NewKey returns a random (version 4 UUID) key.
func NewKey() Key {
	return KeyFromUUID(uuid.New())
}

// KeyFromUUID converts a UUID into a key, big-endian.
func KeyFromUUID(u uuid.UUID) Key {
	return Key{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// ParseKey parses the UUID text forms accepted by github.com/google/uuid,
// including 32 bare hex digits.
func ParseKey(s string) (Key, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Key{}, fmt.Errorf("parsing asset key %q: %w", s, err)
	}
	return KeyFromUUID(u), nil
}

// UUID returns the key as a UUID.
func (k Key) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], k.Hi)
	binary.BigEndian.PutUint64(u[8:16], k.Lo)
	return u
}

// String formats the key in canonical UUID form.
func (k Key) String() string {
	return k.UUID().String()
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k.Hi == 0 && k.Lo == 0
}

// PathKey derives a deterministic key from a virtual path. The high half is
// MurmurHash64A and the low half FNV-1a; both are case-sensitive, matching
// bundle path semantics.
func PathKey(path string) Key {
	const seed = 0x1337b33f
	return Key{
		Hi: murmurHash64A([]byte(path), seed),
		Lo: fnv1a64(path),
	}
}

// murmurHash64A is MurmurHash2, 64-bit variant A. Full 8-byte words are
// mixed little-endian; the final partial word is folded in before the
// avalanche.
func murmurHash64A(data []byte, seed uint64) uint64 {
	const (
		mul   = 0xc6a4a7935bd1e995
		shift = 47
	)

	h := seed ^ uint64(len(data))*mul

	for len(data) >= 8 {
		k := binary.LittleEndian.Uint64(data) * mul
		k = (k ^ k>>shift) * mul
		h = (h ^ k) * mul
		data = data[8:]
	}

	if len(data) > 0 {
		var tail uint64
		for i, b := range data {
			tail |= uint64(b) << (8 * i)
		}
		h = (h ^ tail) * mul
	}

	h = (h ^ h>>shift) * mul
	return h ^ h>>shift
}

func fnv1a64(s string) uint64 {
	const (
		basis = uint64(0xcbf29ce484222325)
		prime = uint64(0x100000001b3)
	)
	hash := basis
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime
	}
	return hash
}
