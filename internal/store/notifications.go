package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// InsertNotification writes a single per-recipient notification record.
// Notifications are insert-only from this service; readers live in the
// external notification system.
func (db *DB) InsertNotification(ctx context.Context, n models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, newsletter_id, message, action_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID.String(), n.UserID.String(), n.NewsletterID.String(), n.Message, n.ActionURL, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert notification: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// CountNotifications reports how many notifications reference the given
// newsletter. Used by tests and the MCP surface; the distribution path
// never reads notifications back.
func (db *DB) CountNotifications(ctx context.Context, newsletterID uuid.UUID) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE newsletter_id = ?
	`, newsletterID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count notifications: %v", apperr.ErrPersistence, err)
	}
	return count, nil
}
