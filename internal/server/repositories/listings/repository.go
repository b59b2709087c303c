package listings

import (
	"context"

	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// Repository persists published listings and their dependent rows.
type Repository interface {
	Create(ctx context.Context, l *models.Listing) error
	AddPhoto(ctx context.Context, id, listingID, url string) error
	AddSecret(ctx context.Context, id, listingID string, rec cryptox.Record) error
	SelectCandidates(ctx context.Context, q models.CandidateQuery) ([]*models.Listing, error)
	SelectActive(ctx context.Context, f Filter) ([]*models.Listing, error)
}

// Filter narrows SelectActive. Zero fields match everything.
type Filter struct {
	Type     models.ListingType
	Category string
	Limit    int
}
