package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/DEMCON/twincat-tools/internal/format"
)

// Increment when the payload layout changes; stale entries then miss.
const cacheSchemaVersion uint16 = 1

// Digest keys the cache: content hash mixed with the configuration.
type Digest = [32]byte

// DiskCache remembers which file contents were already clean under a
// given configuration, so repeated check runs over a large project skip
// untouched files. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema uint16
	Clean  bool
}

// OpenDiskCache initializes the cache at the standard XDG location.
func OpenDiskCache(app string) (*DiskCache, error) {
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

// CacheKey derives the lookup key for one file under one configuration.
func CacheKey(fileHash Digest, cfg format.Config) Digest {
	h := sha256.New()
	h.Write(fileHash[:])

	var buf [8]byte
	binary.LittleEndian.PutUint16(buf[:2], cacheSchemaVersion)
	h.Write(buf[:2])
	for _, v := range []int{
		int(cfg.IndentStyle), cfg.IndentSize, cfg.TabWidth,
		int(cfg.ConditionalParentheses), int(cfg.EndOfLine),
	} {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	for _, b := range []bool{cfg.TrimTrailingWhitespace, cfg.InsertFinalNewline, cfg.AlignVariables} {
		if b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	var key Digest
	h.Sum(key[:0])
	return key
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "files", hex.EncodeToString(key[:])+".mp")
}

// MarkClean records that the keyed content needs no rewriting.
func (c *DiskCache) MarkClean(key Digest) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&cachePayload{Schema: cacheSchemaVersion, Clean: true}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace; concurrent runs race benignly.
	return os.Rename(f.Name(), p)
}

// IsClean reports whether the keyed content is known to need no work.
func (c *DiskCache) IsClean(key Digest) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return false
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false
	}
	return payload.Schema == cacheSchemaVersion && payload.Clean
}

// DropAll wipes the cache, for --no-cache or after upgrades.
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
