// Package knowledge loads and caches the static knowledge fragments the
// prompt assembler draws from: behavioral instructions, persona descriptions,
// and domain reference text.
//
// Fragments are plain text or Markdown files, optionally carrying a YAML
// front-matter block with metadata. They are read once at startup and served
// read-only for the life of the process; the cache is constructed explicitly
// and passed to dependents rather than accessed through a global.
package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/lexhq/counsel/pkg/logging"
)

// DefaultIncludes matches the fragment files loaded when no include
// patterns are configured.
var DefaultIncludes = []string{"**.md", "**.txt"}

type fragment struct {
	meta Meta
	body string
}

// Cache is a read-only, load-once store of knowledge fragments keyed by
// their slash-separated path relative to the source directory that
// contained them.
type Cache struct {
	sources  []string
	includes []glob.Glob
	logger   *logging.Logger

	once      sync.Once
	initErr   error
	fragments map[string]fragment
}

// Option configures a Cache.
type Option func(*Cache) error

// WithIncludes sets the glob patterns (slash-separated, `**` supported)
// that fragment paths must match to be loaded.
func WithIncludes(patterns []string) Option {
	return func(c *Cache) error {
		compiled, err := compileIncludes(patterns)
		if err != nil {
			return err
		}
		c.includes = compiled
		return nil
	}
}

// NewCache creates a cache over the given source directories. Fragments are
// not read until Initialize is called.
func NewCache(sources []string, opts ...Option) (*Cache, error) {
	logger, _ := logging.NewLogger("knowledge")

	includes, err := compileIncludes(DefaultIncludes)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		sources:   sources,
		includes:  includes,
		logger:    logger,
		fragments: make(map[string]fragment),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func compileIncludes(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("knowledge: invalid include pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Initialize scans every source directory once and caches all matching
// fragments. Repeated calls are no-ops returning the first result.
//
// An unreadable source directory is skipped; an unreadable or corrupt
// fragment file is skipped. Neither is fatal on its own, but a scan that
// yields zero fragments is an error: a prompt base with nothing in it can
// never assemble a prompt, and that is better caught at startup than on
// the first turn.
func (c *Cache) Initialize() error {
	c.once.Do(func() {
		for _, source := range c.sources {
			if err := c.loadSource(source); err != nil {
				c.logger.Debugf("skipping knowledge source %s: %v", source, err)
			}
		}
		if len(c.fragments) == 0 {
			c.initErr = fmt.Errorf("knowledge: no fragments loaded from sources %v", c.sources)
			return
		}
		c.logger.Infof("knowledge cache initialized: %d fragments from %d sources",
			len(c.fragments), len(c.sources))
	})
	return c.initErr
}

func (c *Cache) loadSource(source string) error {
	root, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("knowledge: resolve source: %w", err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if !c.matches(key) {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			c.logger.Debugf("skipping unreadable fragment %s: %v", path, err)
			return nil
		}

		meta, body, err := parseFragment(raw)
		if err != nil {
			c.logger.Debugf("skipping corrupt fragment %s: %v", path, err)
			return nil
		}

		// First source wins on key collisions: earlier sources are more
		// specific by convention.
		if _, exists := c.fragments[key]; !exists {
			c.fragments[key] = fragment{meta: meta, body: body}
		}
		return nil
	})
}

func (c *Cache) matches(key string) bool {
	for _, g := range c.includes {
		if g.Match(key) {
			return true
		}
	}
	return false
}

// Read returns the body of the fragment stored under key, reporting whether
// the fragment exists. Callers must tolerate absence.
func (c *Cache) Read(key string) (string, bool) {
	f, ok := c.fragments[key]
	if !ok {
		return "", false
	}
	return f.body, true
}

// Meta returns the front-matter metadata of the fragment stored under key.
func (c *Cache) Meta(key string) (Meta, bool) {
	f, ok := c.fragments[key]
	if !ok {
		return Meta{}, false
	}
	return f.meta, true
}

// Keys returns all fragment keys in sorted order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.fragments))
	for k := range c.fragments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached fragments.
func (c *Cache) Len() int {
	return len(c.fragments)
}
