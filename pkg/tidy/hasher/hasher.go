// Package hasher computes whole-file content digests. Digest equality is
// the only duplicate test used by tidy.
package hasher

import (
	"crypto/md5" //nolint:gosec // used for content identity, not security
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("hasher")

// Algorithm names a supported digest.
type Algorithm string

// Supported algorithms.
const (
	MD5    Algorithm = "md5"
	XXHash Algorithm = "xxhash"
)

// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// ParseAlgorithm converts a configuration string into an Algorithm.
// An empty string selects MD5.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case MD5, "":
		return MD5, nil
	case XXHash:
		return XXHash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Hasher computes digests with a fixed algorithm.
type Hasher struct {
	algo Algorithm
}

// New returns a Hasher for algo. An unknown algorithm falls back to MD5;
// validate configuration with ParseAlgorithm first.
func New(algo Algorithm) *Hasher {
	if algo != XXHash {
		algo = MD5
	}
	return &Hasher{algo: algo}
}

// Algorithm returns the digest algorithm in use.
func (h *Hasher) Algorithm() Algorithm {
	return h.algo
}

func (h *Hasher) newHash() hash.Hash {
	if h.algo == XXHash {
		return xxhash.New()
	}
	return md5.New() //nolint:gosec // content identity only
}

// Hash reads the whole file at path and returns its lowercase hex digest.
func (h *Hasher) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d := h.newHash()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// BatchHash hashes every record and returns a map from path to digest.
// Files that cannot be read are left out of the map.
func (h *Hasher) BatchHash(records []types.FileRecord) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		digest, err := h.Hash(r.Path)
		if err != nil {
			logger.Debug("skipping unhashable file", "path", r.Path, "error", err)
			continue
		}
		out[r.Path] = digest
	}
	return out
}
