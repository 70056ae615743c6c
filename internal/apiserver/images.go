package apiserver

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultImageTTL       = time.Hour
	DefaultImageCacheSize = 4096
)

type imageEntry struct {
	path    string
	found   bool
	expires time.Time
}

// ImageResolver maps painting names to <dir>/<name>.jpg, caching lookups
// (hits and misses) for ttl in a size-bounded LRU.
type ImageResolver struct {
	dir   string
	ttl   time.Duration
	now   func() time.Time
	cache *lru.Cache[string, imageEntry]
}

func NewImageResolver(dir string, ttl time.Duration, size int) *ImageResolver {
	if ttl <= 0 {
		ttl = DefaultImageTTL
	}
	if size <= 0 {
		size = DefaultImageCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, imageEntry](size)
	return &ImageResolver{
		dir:   strings.TrimSpace(dir),
		ttl:   ttl,
		now:   time.Now,
		cache: cache,
	}
}

// Path returns the image file for name when it exists.
func (ir *ImageResolver) Path(name string) (string, bool) {
	if ir == nil || ir.dir == "" || !validImageName(name) {
		return "", false
	}
	now := ir.now()
	if e, ok := ir.cache.Get(name); ok && now.Before(e.expires) {
		if !e.found {
			return "", false
		}
		return e.path, true
	}

	p := filepath.Join(ir.dir, name+".jpg")
	st, err := os.Stat(p)
	e := imageEntry{path: p, found: err == nil && st.Mode().IsRegular(), expires: now.Add(ir.ttl)}
	ir.cache.Add(name, e)
	if !e.found {
		return "", false
	}
	return e.path, true
}

func validImageName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
