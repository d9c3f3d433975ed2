package generate

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
)

// MinDocumentLength is the plausibility floor for generated markup.
// Anything shorter cannot be a usable newsletter document.
const MinDocumentLength = 100

// ValidateHTML is the single gate between the generation service and
// the renderer/store. It strips incidental code fences the service may
// wrap the document in, then rejects output that is empty, implausibly
// short, or missing the leading document marker.
func ValidateHTML(raw string) (string, error) {
	doc := stripCodeFence(strings.TrimSpace(raw))

	if doc == "" {
		return "", fmt.Errorf("%w: empty document", apperr.ErrUpstreamContent)
	}
	if len(doc) < MinDocumentLength {
		return "", fmt.Errorf("%w: document too short (%d bytes)", apperr.ErrUpstreamContent, len(doc))
	}

	lower := strings.ToLower(doc)
	if !strings.HasPrefix(lower, "<!doctype html") && !strings.HasPrefix(lower, "<html") {
		return "", fmt.Errorf("%w: missing document marker", apperr.ErrUpstreamContent)
	}
	return doc, nil
}

// stripCodeFence removes a single surrounding ``` or ```html fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		return s
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
