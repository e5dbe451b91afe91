// Package cache keeps per-file resolver indexes on disk, keyed by the
// diagram's content digest, so repeated check/resolve runs over an
// unchanged file skip re-indexing. Thread-safe for concurrent access.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when IndexPayload changes shape; stale entries miss instead of
// decoding garbage.
const schemaVersion uint16 = 2

// Digest is a SHA-256 of the diagram source text.
type Digest [sha256.Size]byte

// DigestOf hashes diagram source text.
func DigestOf(raw []byte) Digest {
	return sha256.Sum256(raw)
}

// IndexPayload is the cached view of one diagram: everything the
// resolver needs to answer reference lookups without reparsing.
type IndexPayload struct {
	Schema uint16

	// Resource identifiers in document order.
	Identifiers []string
	// PerspectiveIDs in document order.
	PerspectiveIDs []string
	// ContextNames in document order.
	ContextNames []string
	// Namespaces declared by imports.
	Namespaces []string

	// Whether strict validation found errors at index time.
	Broken bool
	// Whether strict validation produced no findings at all. Strict is
	// the harshest mode, so a clean entry is clean under native too.
	Clean bool
}

// DiskCache stores index payloads under the user cache directory.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a disk cache at the standard location
// ($XDG_CACHE_HOME/<app> or ~/.cache/<app>).
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "index", hexKey+".mp")
}

// Put serializes and writes a payload. A nil cache accepts and drops
// writes so call sites need no guards.
func (c *DiskCache) Put(key Digest, payload *IndexPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A schema mismatch reads as a miss.
func (c *DiskCache) Get(key Digest, out *IndexPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
