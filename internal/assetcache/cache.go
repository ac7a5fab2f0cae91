package assetcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Cache is a content-addressed store for generated assets.
type Cache struct {
	dir     string
	enabled bool
}

type manifestEntry struct {
	Hash      string    `json:"hash"`
	File      string    `json:"file"`
	UpdatedAt time.Time `json:"updated_at"`
}

type manifest map[string]manifestEntry

// New opens (and creates if needed) a cache rooted at dir. A disabled cache
// is valid; every lookup misses and every store is a no-op.
func New(dir string, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		return nil, errors.New("asset cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	return &Cache{dir: dir, enabled: true}, nil
}

// Enabled reports whether the cache persists anything.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Lookup returns the cached file for key when its recorded hash matches the
// provided content hash and the file still exists.
func (c *Cache) Lookup(key, hash string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}
	lock := c.manifestLock()
	if err := lock.Lock(); err != nil {
		return "", false, fmt.Errorf("lock cache manifest: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := c.readManifest()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[key]
	if !ok || entry.Hash != hash {
		return "", false, nil
	}
	path := filepath.Join(c.dir, entry.File)
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}
	return path, true, nil
}

// Store copies srcPath into the cache under key, recording the content hash
// that produced it. It returns the cached file path.
func (c *Cache) Store(key, hash, srcPath string) (string, error) {
	if !c.Enabled() {
		return srcPath, nil
	}
	if hash == "" {
		return "", errors.New("content hash is empty")
	}

	name := hash + filepath.Ext(srcPath)
	target := filepath.Join(c.dir, name)
	if err := copyFile(srcPath, target); err != nil {
		return "", err
	}

	lock := c.manifestLock()
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock cache manifest: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := c.readManifest()
	if err != nil {
		return "", err
	}
	entries[key] = manifestEntry{
		Hash:      hash,
		File:      name,
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.writeManifest(entries); err != nil {
		return "", err
	}
	return target, nil
}

// Prune removes cached files not referenced by the manifest.
func (c *Cache) Prune() (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	lock := c.manifestLock()
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock cache manifest: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := c.readManifest()
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		referenced[entry.File] = struct{}{}
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	removed := 0
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || name == manifestName || name == lockName {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

const (
	manifestName = "manifest.json"
	lockName     = "manifest.lock"
)

func (c *Cache) manifestLock() *flock.Flock {
	return flock.New(filepath.Join(c.dir, lockName))
}

func (c *Cache) readManifest() (manifest, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache manifest: %w", err)
	}
	var entries manifest
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt manifest only costs regeneration work.
		return manifest{}, nil
	}
	return entries, nil
}

func (c *Cache) writeManifest(entries manifest) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache manifest: %w", err)
	}
	tmp := filepath.Join(c.dir, manifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, manifestName)); err != nil {
		return fmt.Errorf("replace cache manifest: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy into cache: %w", err)
	}
	return out.Sync()
}
