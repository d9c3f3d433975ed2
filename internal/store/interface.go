package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
)

// Store defines the persistence operations consumed by the newsletter
// service.
type Store interface {
	CreateGenerated(ctx context.Context, title, category string, articles []models.Article, html string, pdf []byte) (*models.Newsletter, error)
	GetNewsletter(ctx context.Context, id uuid.UUID) (*models.Newsletter, error)
	ListByCategories(ctx context.Context, categories []string) ([]models.Newsletter, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Newsletter, error)
	UpdateSent(ctx context.Context, id uuid.UUID, recipients []uuid.UUID) (*models.Newsletter, error)
	DeleteNewsletter(ctx context.Context, id uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	GetCategory(ctx context.Context, name string) (*models.Category, error)
	InsertNotification(ctx context.Context, n models.Notification) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
