// Package flyers maintains an in-memory catalog of category flyer
// images found in a directory. The catalog maps a category name to the
// URL the generated newsletter embeds for that category's banner.
package flyers

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// imageExts lists the file extensions treated as flyer images.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Library resolves category names to flyer URLs. A flyer for category
// "Tech" is any image file named tech.<ext> (case-insensitive) in the
// flyer directory.
type Library struct {
	root    string
	baseURL string

	mu    sync.RWMutex
	files map[string]string // lowercased category -> filename
}

// NewLibrary scans root and builds the initial catalog. A missing
// directory is not an error: the catalog starts empty and the watcher
// picks the directory up if it appears later.
func NewLibrary(root, baseURL string) (*Library, error) {
	l := &Library{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		files:   make(map[string]string),
	}
	if err := l.rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

// Root returns the flyer directory path.
func (l *Library) Root() string {
	return l.root
}

// URL returns the flyer URL for a category, if one exists.
func (l *Library) URL(category string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.files[strings.ToLower(category)]
	if !ok {
		return "", false
	}
	return l.baseURL + "/" + name, true
}

// Count returns the number of cataloged flyers.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.files)
}

// rescan rebuilds the catalog from the directory contents.
func (l *Library) rescan() error {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			l.mu.Lock()
			l.files = make(map[string]string)
			l.mu.Unlock()
			return nil
		}
		return err
	}

	files := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExts[ext] {
			continue
		}
		category := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		files[category] = e.Name()
	}

	l.mu.Lock()
	l.files = files
	l.mu.Unlock()
	return nil
}
