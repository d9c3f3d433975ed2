package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
)

// ArticleInput is one curated article in a generation request.
type ArticleInput struct {
	Title       string `json:"title" example:"Go 1.25 released" validate:"required"`
	Summary     string `json:"summary" example:"The Go team announced..." validate:"required"`
	SourceName  string `json:"source_name" example:"The Go Blog"`
	Category    string `json:"category" example:"Tech"`
	OriginalURL string `json:"original_url" example:"https://go.dev/blog/go1.25"`
	ImageURL    string `json:"image_url" example:"https://go.dev/images/go1.25.png"`
}

// GenerateRequest is the request body for generating a newsletter.
type GenerateRequest struct {
	Title    string         `json:"title" example:"Weekly Digest" validate:"required"`
	Category string         `json:"category" example:"Tech" validate:"required"`
	Articles []ArticleInput `json:"articles" validate:"required"`
}

// Validate checks the generation request field constraints.
func (r GenerateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.Articles, validation.Required, validation.Length(1, 0)),
	)
}

func (r GenerateRequest) articles() []models.Article {
	out := make([]models.Article, 0, len(r.Articles))
	for _, a := range r.Articles {
		out = append(out, models.Article{
			Title:       a.Title,
			Summary:     a.Summary,
			SourceName:  a.SourceName,
			Category:    a.Category,
			OriginalURL: a.OriginalURL,
			ImageURL:    a.ImageURL,
		})
	}
	return out
}

// StatusRequest is the request body for updating a newsletter status.
type StatusRequest struct {
	Status string `json:"status" example:"approved" validate:"required"`
}

// Validate checks the status request field constraints.
func (r StatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

// SendRequest is the request body for distributing a newsletter.
type SendRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required"`
}

// Validate checks the send request field constraints.
func (r SendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserIDs, validation.Required, validation.Length(1, 0)),
	)
}

// NewsletterSummary is a lightweight item in a list response (aliased from the domain layer).
type NewsletterSummary = models.Newsletter

// NewsletterListResponse wraps newsletter listings.
type NewsletterListResponse struct {
	Newsletters []NewsletterSummary `json:"newsletters" validate:"required"`
	Total       int                 `json:"total" example:"7" validate:"required"`
}
