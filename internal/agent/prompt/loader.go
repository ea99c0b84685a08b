// Package prompt loads the system prompt templates used by the agent
// pipeline from disk, caching each file's content keyed by its modification
// time so a prompt edit on disk is picked up without a restart while a
// steady-state file is only read once.
package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Named prompt files served out of promptsDir.
const (
	IntentPromptFile  = "intent.md"
	SQLPromptFile     = "sql.md"
	InsightPromptFile = "insight.md"
)

//go:embed defaults/*.md
var defaults embed.FS

type cacheEntry struct {
	content string
	modTime int64
}

// Loader reads prompt files from promptsDir, falling back to the built-in
// defaults embedded in this binary when a file is not present on disk.
type Loader struct {
	promptsDir string

	mu    sync.RWMutex
	cache map[string]cacheEntry

	sf singleflight.Group
}

// NewLoader creates a Loader serving prompt files out of promptsDir.
func NewLoader(promptsDir string) *Loader {
	return &Loader{
		promptsDir: promptsDir,
		cache:      make(map[string]cacheEntry),
	}
}

// Load returns the content of name, re-reading it from disk only if the
// file's mtime has changed since the last load. Each call stats the file;
// concurrent re-reads of the same file are collapsed into a single read via
// singleflight.
func (l *Loader) Load(name string) (string, error) {
	path := filepath.Join(l.promptsDir, name)

	info, statErr := os.Stat(path)
	if statErr == nil {
		mod := info.ModTime().UnixNano()

		l.mu.RLock()
		entry, ok := l.cache[name]
		l.mu.RUnlock()
		if ok && entry.modTime == mod {
			return entry.content, nil
		}

		v, err, _ := l.sf.Do(name, func() (interface{}, error) {
			l.mu.RLock()
			entry, ok := l.cache[name]
			l.mu.RUnlock()
			if ok && entry.modTime == mod {
				return entry.content, nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}

			l.mu.Lock()
			l.cache[name] = cacheEntry{content: string(data), modTime: mod}
			l.mu.Unlock()

			return string(data), nil
		})
		if err == nil {
			return v.(string), nil
		}
	}

	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt: no file %q on disk and no built-in default: %w", name, err)
	}
	return string(data), nil
}
