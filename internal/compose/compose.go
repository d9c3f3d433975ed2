// Package compose builds the generation request for AI-assisted
// newsletter synthesis. It is a pure data transformation: the same
// inputs always yield the same prompt.
package compose

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/models"
)

// Prompt is the message pair sent to the generation service.
type Prompt struct {
	System string
	User   string
}

// Fixed layout rules. All styling is expressed as attribute-level
// styling rather than stylesheet rules so the rendering engine needs no
// external resources to honor it.
const (
	containerWidthPx = 800
	bodyFontStack    = "Helvetica, Arial, sans-serif"
)

const systemPrompt = "You are a newsletter layout engine. You output a single, complete, " +
	"self-contained HTML document and nothing else: no explanations, no Markdown, no code fences. " +
	"The document must start with <!DOCTYPE html>."

// Compose builds the generation request from the newsletter title, the
// ordered article list, and an optional flyer image URL.
func Compose(title string, articles []models.Article, flyerURL string) (Prompt, error) {
	data, err := json.Marshal(articles)
	if err != nil {
		return Prompt{}, fmt.Errorf("compose: marshal articles: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Produce a print-ready HTML newsletter document.\n")
	sb.WriteString("Layout rules:\n")
	fmt.Fprintf(&sb, "- Single centered container, exactly %dpx wide.\n", containerWidthPx)
	fmt.Fprintf(&sb, "- Typography: %s; body text 16px with 1.5 line height; headings bold.\n", bodyFontStack)
	sb.WriteString("- All styling must be inline style attributes on the elements themselves. Do not emit <style> blocks, <link> tags, or classes.\n")
	sb.WriteString("- One single-column block per article: heading, summary paragraph, source attribution, and a link to the original URL. Include the article image (if an imageUrl is present) above the summary, scaled to the container width.\n")
	sb.WriteString("- Preserve the given article order.\n")
	if len(articles) > 0 {
		fmt.Fprintf(&sb, "- Open with a pull-quote derived from the first article's summary, set in larger italic type: %q\n", pullQuote(articles[0].Summary))
	}
	if flyerURL != "" {
		fmt.Fprintf(&sb, "- Place the flyer image %q as a full-width banner at the very top, above the title.\n", flyerURL)
	}
	fmt.Fprintf(&sb, "\nNewsletter title: %s\n", title)
	sb.WriteString("\nArticle data (JSON, in order):\n")
	sb.Write(data)

	return Prompt{System: systemPrompt, User: sb.String()}, nil
}

// pullQuote trims the first article summary down to a quotable sentence.
func pullQuote(summary string) string {
	s := strings.TrimSpace(summary)
	if i := strings.IndexAny(s, ".!?"); i > 0 && i < len(s)-1 {
		s = s[:i+1]
	}
	// Truncate on rune boundaries so multi-byte text stays valid UTF-8.
	const maxQuote = 200
	if utf8.RuneCountInString(s) > maxQuote {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:maxQuote])) + "…"
	}
	return s
}
