package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// PDFContentType is the media type recorded for every stored artifact.
const PDFContentType = "application/pdf"

// CreateGenerated persists the output of a successful generation run.
// The record starts in not_sent with an empty recipient set. Both the
// markup and the artifact are stored opaque; the store validates neither.
func (db *DB) CreateGenerated(ctx context.Context, title, category string, articles []models.Article, html string, pdf []byte) (*models.Newsletter, error) {
	now := time.Now().UTC()
	n := &models.Newsletter{
		ID:             uuid.New(),
		Title:          title,
		Category:       category,
		Status:         models.StatusNotSent,
		Articles:       articles,
		Recipients:     []uuid.UUID{},
		HTML:           html,
		PDF:            pdf,
		PDFContentType: PDFContentType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	articlesJSON, err := json.Marshal(n.Articles)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal articles: %v", apperr.ErrPersistence, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO newsletters (id, title, category, status, articles, recipients, html, pdf, pdf_content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '[]', ?, ?, ?, ?, ?)
	`, n.ID.String(), n.Title, n.Category, string(n.Status), string(articlesJSON), n.HTML, n.PDF, n.PDFContentType, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert newsletter: %v", apperr.ErrPersistence, err)
	}
	return n, nil
}

// GetNewsletter loads a full record, including markup and artifact.
func (db *DB) GetNewsletter(ctx context.Context, id uuid.UUID) (*models.Newsletter, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, title, category, status, articles, recipients, html, pdf, pdf_content_type, created_at, updated_at
		FROM newsletters WHERE id = ?
	`, id.String())
	return scanNewsletter(row)
}

// ListByCategories returns summary rows (no markup, no artifact bytes)
// for newsletters whose category is in the given set. An empty set
// yields an empty slice without touching the database.
func (db *DB) ListByCategories(ctx context.Context, categories []string) ([]models.Newsletter, error) {
	out := []models.Newsletter{}
	if len(categories) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categories)), ",")
	args := make([]any, len(categories))
	for i, c := range categories {
		args[i] = c
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, category, status, articles, recipients, length(coalesce(pdf, '')), pdf_content_type, created_at, updated_at
		FROM newsletters WHERE category IN (`+placeholders+`)
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list newsletters: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n                        models.Newsletter
			idStr, status            string
			articlesJSON, recipsJSON string
			pdfLen                   int
		)
		if err := rows.Scan(&idStr, &n.Title, &n.Category, &status, &articlesJSON, &recipsJSON, &pdfLen, &n.PDFContentType, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan newsletter: %v", apperr.ErrPersistence, err)
		}
		if err := fillNewsletter(&n, idStr, status, articlesJSON, recipsJSON); err != nil {
			return nil, err
		}
		if pdfLen == 0 {
			n.PDFContentType = ""
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate newsletters: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

// UpdateStatus applies the target status unconditionally and returns the
// updated record. Validity of the status value is the caller's concern
// (models.ParseStatus); transition legality is governed by the service.
func (db *DB) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Newsletter, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE newsletters SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC(), id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: update status: %v", apperr.ErrPersistence, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperr.ErrNotFound
	}
	return db.GetNewsletter(ctx, id)
}

// UpdateSent marks the newsletter sent and merges the given recipients
// into its recipient set (set union) within a single transaction.
func (db *DB) UpdateSent(ctx context.Context, id uuid.UUID, recipients []uuid.UUID) (*models.Newsletter, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", apperr.ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var recipsJSON string
	err = tx.QueryRowContext(ctx, `SELECT recipients FROM newsletters WHERE id = ?`, id.String()).Scan(&recipsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load recipients: %v", apperr.ErrPersistence, err)
	}

	existing, err := decodeRecipients(recipsJSON)
	if err != nil {
		return nil, err
	}

	merged := unionRecipients(existing, recipients)
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal recipients: %v", apperr.ErrPersistence, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE newsletters SET status = ?, recipients = ?, updated_at = ? WHERE id = ?
	`, string(models.StatusSent), string(mergedJSON), time.Now().UTC(), id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: update sent: %v", apperr.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", apperr.ErrPersistence, err)
	}
	return db.GetNewsletter(ctx, id)
}

// DeleteNewsletter removes a record permanently.
func (db *DB) DeleteNewsletter(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM newsletters WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("%w: delete newsletter: %v", apperr.ErrPersistence, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNewsletter(row rowScanner) (*models.Newsletter, error) {
	var (
		n                        models.Newsletter
		idStr, status            string
		articlesJSON, recipsJSON string
		pdf                      []byte
	)
	err := row.Scan(&idStr, &n.Title, &n.Category, &status, &articlesJSON, &recipsJSON, &n.HTML, &pdf, &n.PDFContentType, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan newsletter: %v", apperr.ErrPersistence, err)
	}
	n.PDF = pdf
	if err := fillNewsletter(&n, idStr, status, articlesJSON, recipsJSON); err != nil {
		return nil, err
	}
	return &n, nil
}

func fillNewsletter(n *models.Newsletter, idStr, status, articlesJSON, recipsJSON string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("%w: parse id %q: %v", apperr.ErrPersistence, idStr, err)
	}
	n.ID = id
	n.Status = models.Status(status)

	if err := json.Unmarshal([]byte(articlesJSON), &n.Articles); err != nil {
		return fmt.Errorf("%w: decode articles: %v", apperr.ErrPersistence, err)
	}
	recips, err := decodeRecipients(recipsJSON)
	if err != nil {
		return err
	}
	n.Recipients = recips
	return nil
}

func decodeRecipients(raw string) ([]uuid.UUID, error) {
	recips := []uuid.UUID{}
	if raw == "" {
		return recips, nil
	}
	if err := json.Unmarshal([]byte(raw), &recips); err != nil {
		return nil, fmt.Errorf("%w: decode recipients: %v", apperr.ErrPersistence, err)
	}
	return recips, nil
}

func unionRecipients(existing, incoming []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(existing)+len(incoming))
	merged := make([]uuid.UUID, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range incoming {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged
}
