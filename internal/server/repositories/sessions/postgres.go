// Package sessions persists per-user workflow state.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/dbx"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// PostgresRepository implements session storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the session of userID or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Session, error) {
	query := `
		SELECT step, payload, version, updated_at
		FROM sessions
		WHERE user_id = $1
	`
	s := &models.Session{UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.Step, &s.Payload, &s.Version, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Save writes the session if the stored version still equals s.Version.
// Version 0 creates the row and conflicts with an existing one. A higher
// version updates in place and conflicts when the row changed or is gone,
// so a stale writer cannot resurrect a deleted session.
func (r *PostgresRepository) Save(ctx context.Context, s *models.Session) error {
	insert := `
		INSERT INTO sessions (user_id, step, payload, version, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (user_id) DO NOTHING
	`
	update := `
		UPDATE sessions
		SET step = $2, payload = $3, version = version + 1, updated_at = now()
		WHERE user_id = $1 AND version = $4
	`

	var (
		res sql.Result
		err error
	)
	if s.Version == 0 {
		res, err = r.db.ExecContext(ctx, insert, s.UserID, s.Step, s.Payload)
	} else {
		res, err = r.db.ExecContext(ctx, update, s.UserID, s.Step, s.Payload, s.Version)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		s.Version++
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Delete removes the session of userID. Missing rows are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
