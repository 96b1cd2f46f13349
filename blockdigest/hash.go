// Package blockdigest implements the fixed-size block fingerprinting and
// patch-frame encoding shared by the driver and agent halves of the
// delta-transfer protocol. It deliberately has no notion of a rolling
// checksum: blocks are hashed whole, at fixed offsets, and compared in a
// single pass rather than searched for at arbitrary shifts.
package blockdigest

import (
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Factory constructs a new, zeroed instance of a hash algorithm.
type Factory func() hash.Hash

// registryEntry pairs a hash factory with its fixed digest width so that
// callers don't need to instantiate a hasher just to learn D.
type registryEntry struct {
	factory Factory
	size    int
}

// registry maps textual hash_name identifiers to their implementations. Both
// peers in a transfer must resolve hash_name to the same entry; the name is
// the only thing that crosses the wire; the table below is what gives it
// meaning.
var registry = map[string]registryEntry{
	"sha3_512": {sha3.New512, 64},
	"sha3_256": {sha3.New256, 32},
	"sha256":   {sha256.New, sha256.Size},
	"blake2b_256": {func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			// blake2b.New256 only fails for a non-nil, wrong-length key.
			panic(errors.Wrap(err, "blake2b initialization failed"))
		}
		return h
	}, 32},
}

// DefaultHashName is the canonical hash used when none is specified.
const DefaultHashName = "sha3_512"

// Lookup resolves a hash_name to its factory and digest width. It returns an
// error if the name is not known to this implementation.
func Lookup(name string) (Factory, int, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, 0, errors.Errorf("unknown hash name: %q", name)
	}
	return entry.factory, entry.size, nil
}

// Size returns the digest width for a hash_name without allocating a hasher.
func Size(name string) (int, error) {
	_, size, err := Lookup(name)
	return size, err
}

// Sum computes H(hash_name, data), i.e. the digest of data under the named
// hash algorithm. This is used for the sanity echo (hashing the
// destination path); the streaming per-block and
// whole-file digests use their own incremental hash.Hash instances instead
// of repeatedly calling Sum.
func Sum(name string, data []byte) ([]byte, error) {
	factory, _, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	h := factory()
	h.Write(data)
	return h.Sum(nil), nil
}
