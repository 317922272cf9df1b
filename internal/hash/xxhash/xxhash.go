// Package xxhash provides content fingerprinting for dedup.
package xxhash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hasher implements crawler.Hasher using xxHash64. The fingerprint is a
// dedup key over full page bodies, not a security primitive, so a fast
// non-cryptographic hash is the right trade.
type Hasher struct{}

// New returns an xxHash64 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the fixed-width hex digest of data.
func (Hasher) Hash(data []byte) (string, error) {
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
