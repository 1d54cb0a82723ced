// ABOUTME: SQLite implementation for the 3D-model content catalog.
// ABOUTME: Supports registering content references and uniform-random selection.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AddContent registers a content reference in the catalog.
func (s *SQLiteStore) AddContent(ctx context.Context, item *ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO catalog (id, content_ref, created_at) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, item.ID, item.ContentRef, item.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting catalog item: %w", err)
	}

	s.logger.Debug("added catalog item", "id", item.ID, "content_ref", item.ContentRef)
	return nil
}

// RandomContentRef returns a uniformly random content reference from the
// catalog. Returns ErrNotFound if the catalog is empty.
func (s *SQLiteStore) RandomContentRef(ctx context.Context) (string, error) {
	query := `SELECT content_ref FROM catalog ORDER BY RANDOM() LIMIT 1`

	var ref string
	err := s.db.QueryRowContext(ctx, query).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("selecting catalog item: %w", err)
	}
	return ref, nil
}
