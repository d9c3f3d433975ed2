package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/compose"
)

// MockClient returns a canned document without calling any external
// model. Useful for local runs and tests.
type MockClient struct {
	// Response overrides the default document when non-empty.
	Response string
	// Err is returned as-is when non-nil.
	Err error
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Generate(_ context.Context, prompt compose.Prompt) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<body style=\"margin:0;padding:0\">\n")
	sb.WriteString("<div style=\"width:800px;margin:0 auto;font-family:Helvetica,Arial,sans-serif\">\n")
	fmt.Fprintf(&sb, "<pre style=\"white-space:pre-wrap\">%s</pre>\n", prompt.User)
	sb.WriteString("</div>\n</body>\n</html>\n")
	return sb.String(), nil
}
