package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"menu-spinner/internal/database"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save appends a shopping list to the session's history.
func (r *Repository) Save(ctx context.Context, sessionID string, list List) (int64, error) {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	createdAt := list.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (session_id, items, fallback, cause, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, string(itemsJSON), database.BoolInt(list.Fallback), list.Cause, database.FormatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recent list saved for the session, or nil.
func (r *Repository) Latest(ctx context.Context, sessionID string) (*List, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, items, fallback, cause, created_at
		FROM shopping_lists
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1`, sessionID)

	var (
		list      List
		itemsJSON string
		fallback  int
		createdAt string
	)
	if err := row.Scan(&list.ID, &itemsJSON, &fallback, &list.Cause, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get latest shopping list: %w", err)
	}

	if err := json.Unmarshal([]byte(itemsJSON), &list.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	list.Fallback = fallback != 0

	ts, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shopping list timestamp: %w", err)
	}
	list.CreatedAt = ts
	return &list, nil
}
