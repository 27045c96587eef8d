// filecache.go implements the same-calendar-day file cache every provider
// client is backed by, using an atomic temp-file-then-rename write
// pattern. Cache writes only happen after a successful fetch, and a
// cache read past the end of the current calendar day (in the cache's
// configured location) is treated as a miss.
package providers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache is a symbol-keyed, same-day JSON cache for one provider
// endpoint family.
type FileCache struct {
	dir  string
	now  func() time.Time
	loc  *time.Location
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir, now: time.Now, loc: time.UTC}
}

func (c *FileCache) path(symbol string) string {
	return filepath.Join(c.dir, symbol+".json")
}

// Get reads the cached value for symbol into out, returning ok=false if
// no entry exists or the cached entry's mtime isn't from the current
// calendar day.
func (c *FileCache) Get(symbol string, out any) (bool, error) {
	path := c.path(symbol)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("providers: filecache stat %s: %w", path, err)
	}

	if !sameCalendarDay(info.ModTime(), c.now(), c.loc) {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("providers: filecache read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("providers: filecache decode %s: %w", path, err)
	}
	return true, nil
}

// Put writes value for symbol atomically: temp file then rename, so a
// concurrent reader never observes a partial write. Only ever called
// after a successful upstream fetch.
func (c *FileCache) Put(symbol string, value any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("providers: filecache mkdir %s: %w", c.dir, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("providers: filecache encode: %w", err)
	}

	finalPath := c.path(symbol)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("providers: filecache write temp: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("providers: filecache rename: %w", err)
	}
	return nil
}

func sameCalendarDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
