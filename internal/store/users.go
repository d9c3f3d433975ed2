package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// GetUser loads a single user by identity.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var (
		u             models.User
		idStr, catsJS string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, email, name, categories FROM users WHERE id = ?
	`, id.String()).Scan(&idStr, &u.Email, &u.Name, &catsJS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", apperr.ErrPersistence, err)
	}
	u.ID = id
	if err := json.Unmarshal([]byte(catsJS), &u.Categories); err != nil {
		return nil, fmt.Errorf("%w: decode user categories: %v", apperr.ErrPersistence, err)
	}
	return &u, nil
}

// GetUsers loads the users matching the given identities. Unknown IDs
// are silently absent from the result; the caller decides whether a
// partial resolution is acceptable.
func (db *DB) GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, email, name, categories FROM users WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: get users: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u             models.User
			idStr, catsJS string
		)
		if err := rows.Scan(&idStr, &u.Email, &u.Name, &catsJS); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", apperr.ErrPersistence, err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("%w: parse user id %q: %v", apperr.ErrPersistence, idStr, err)
		}
		u.ID = id
		if err := json.Unmarshal([]byte(catsJS), &u.Categories); err != nil {
			return nil, fmt.Errorf("%w: decode user categories: %v", apperr.ErrPersistence, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate users: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

// UpsertUser inserts or replaces a user record. Users are owned by an
// external system; this is the synchronization entry point.
func (db *DB) UpsertUser(ctx context.Context, u models.User) error {
	catsJSON, err := json.Marshal(u.Categories)
	if err != nil {
		return fmt.Errorf("%w: marshal user categories: %v", apperr.ErrPersistence, err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, name, categories)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email      = excluded.email,
			name       = excluded.name,
			categories = excluded.categories
	`, u.ID.String(), u.Email, u.Name, string(catsJSON))
	if err != nil {
		return fmt.Errorf("%w: upsert user: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// GetCategory loads a category by its unique name.
func (db *DB) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	var (
		c      models.Category
		kwJSON string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT name, keywords, flyer_path FROM categories WHERE name = ?
	`, name).Scan(&c.Name, &kwJSON, &c.FlyerPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get category: %v", apperr.ErrPersistence, err)
	}
	if err := json.Unmarshal([]byte(kwJSON), &c.Keywords); err != nil {
		return nil, fmt.Errorf("%w: decode keywords: %v", apperr.ErrPersistence, err)
	}
	return &c, nil
}

// UpsertCategory inserts or replaces a category record.
func (db *DB) UpsertCategory(ctx context.Context, c models.Category) error {
	kwJSON, err := json.Marshal(c.Keywords)
	if err != nil {
		return fmt.Errorf("%w: marshal keywords: %v", apperr.ErrPersistence, err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO categories (name, keywords, flyer_path)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			keywords   = excluded.keywords,
			flyer_path = excluded.flyer_path
	`, c.Name, string(kwJSON), c.FlyerPath)
	if err != nil {
		return fmt.Errorf("%w: upsert category: %v", apperr.ErrPersistence, err)
	}
	return nil
}
