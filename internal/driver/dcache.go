package driver

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"keb/internal/project"
	"keb/internal/ssa"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит скомпилированные SSA-модули по хешу исходника.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cache entry.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path       string
	SourceHash project.Digest
	Built      time.Time

	// Artifact is the ssa.Encode output.
	Artifact []byte
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// CacheKey mixes the source hash with the cache schema so that a format bump
// never reads stale entries.
func CacheKey(sourceHash [32]byte) project.Digest {
	var schema project.Digest
	schema[0] = byte(diskCacheSchemaVersion >> 8)
	schema[1] = byte(diskCacheSchemaVersion)
	return project.Combine(project.Digest(sourceHash), schema)
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства чтения и очистки - подкаталог "ssa".
	return filepath.Join(c.dir, "ssa", hexKey+".mp")
}

// Put encodes m and stores it under key.
func (c *DiskCache) Put(key project.Digest, path string, m *ssa.Module) error {
	if c == nil {
		return nil
	}
	var art bytes.Buffer
	if err := ssa.Encode(&art, m); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	payload := &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Path:       path,
		SourceHash: key,
		Built:      time.Now().UTC(),
		Artifact:   art.Bytes(),
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
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get returns the module stored under key. A missing entry or an entry of an
// older schema is a miss, not an error.
func (c *DiskCache) Get(key project.Digest) (*ssa.Module, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.SourceHash != key {
		return nil, false, nil
	}
	m, err := ssa.Decode(bytes.NewReader(payload.Artifact))
	if err != nil {
		return nil, false, fmt.Errorf("cached artifact for %s: %w", payload.Path, err)
	}
	return m, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
