// Package models defines the domain types for Ansuz.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
)

// Status enumerates the distribution lifecycle of a newsletter.
type Status string

const (
	StatusNotSent  Status = "not_sent"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusSent     Status = "sent"
	StatusDeclined Status = "declined"
)

// ParseStatus validates a raw status value against the enumerated set.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusNotSent, StatusPending, StatusApproved, StatusSent, StatusDeclined:
		return s, nil
	default:
		return "", apperr.ErrInvalidStatus
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDeclined
}

// Newsletter is the persisted record produced by the generation pipeline
// and mutated by the distribution workflow.
//
// HTML and PDF are both present or both absent: generation is
// all-or-nothing, and the store never receives a partial result.
type Newsletter struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Category       string      `json:"category"`
	Status         Status      `json:"status"`
	Articles       []Article   `json:"articles"`
	Recipients     []uuid.UUID `json:"recipients"`
	HTML           string      `json:"-"`
	PDF            []byte      `json:"-"`
	PDFContentType string      `json:"pdf_content_type,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// HasArtifact reports whether the rendered artifact is stored.
func (n *Newsletter) HasArtifact() bool {
	return len(n.PDF) > 0
}

// Article is a curated article reference carried into a newsletter.
type Article struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	SourceName  string `json:"sourceName"`
	Category    string `json:"category,omitempty"`
	OriginalURL string `json:"originalUrl"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Category groups articles and optionally carries a flyer image used by
// the prompt composer. Keywords drive upstream article search and are
// read-only here.
type Category struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords,omitempty"`
	FlyerPath string   `json:"flyer_path,omitempty"`
}

// Notification is the per-recipient side-effect record written after a
// successful distribution. Insert-only from this service.
type Notification struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	NewsletterID uuid.UUID `json:"newsletter_id"`
	Message      string    `json:"message"`
	ActionURL    string    `json:"action_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is an external identity consumed read-only for recipient
// resolution and category-scoped listing.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Categories []string  `json:"categories"`
}
