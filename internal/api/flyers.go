package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FlyerHandler serves category flyer images so generated newsletters
// can reference them by URL. Flyers are provisioned on disk out of
// band; there is no upload endpoint.
type FlyerHandler struct {
	root string
}

// NewFlyerHandler creates a handler rooted at the flyer directory.
func NewFlyerHandler(root string) *FlyerHandler {
	return &FlyerHandler{root: root}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the flyer dir.
func (h *FlyerHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.root, cleaned)
	// Double-check the resolved path is under the flyer dir.
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) && abs != h.root {
		return "", fmt.Errorf("path escapes flyer directory")
	}
	return abs, nil
}

// ServeFile handles GET /flyers/{filename}.
func (h *FlyerHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
