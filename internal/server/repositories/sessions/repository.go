package sessions

import (
	"context"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// Repository stores one workflow session per user.
//
// Save is conditional: s.Version must equal the stored version (0 when no
// row is expected). On success s.Version holds the new version; a mismatch
// yields common.ErrVersionConflict.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, userID string) error
}
