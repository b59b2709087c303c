package sessions

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// MemoryRepository keeps sessions in process memory with the same
// versioning rules as PostgresRepository.
type MemoryRepository struct {
	mu    sync.Mutex
	rows  map[string]models.Session
	clock common.Clock
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository(clock common.Clock) *MemoryRepository {
	return &MemoryRepository{rows: map[string]models.Session{}, clock: clock}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	s.Payload = append([]byte(nil), s.Payload...)
	return &s, nil
}

func (r *MemoryRepository) Save(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rows[s.UserID]
	if (ok && cur.Version != s.Version) || (!ok && s.Version != 0) {
		return common.ErrVersionConflict
	}

	stored := *s
	stored.Version = s.Version + 1
	stored.Payload = append([]byte(nil), s.Payload...)
	stored.UpdatedAt = r.clock.Now()
	r.rows[s.UserID] = stored

	s.Version = stored.Version
	s.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, userID)
	return nil
}

// Len returns the number of stored sessions.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)
