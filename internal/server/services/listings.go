package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/catalog"
	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/dbx"
	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/photos"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/listings"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lostfound/internal/timex"
)

var (
	ErrNoAuthor   = errors.New("author is not resolved")
	ErrNoCategory = errors.New("category is not selected")
	ErrEmptyDraft = errors.New("draft is empty")
)

// MapListingLimit caps the map listing query.
const MapListingLimit = 500

// Matcher ranks counterparts of a freshly published listing.
type Matcher interface {
	FindMatches(ctx context.Context, l *models.Listing) ([]models.MatchCandidate, error)
}

// PublishResult is returned by a successful publish.
type PublishResult struct {
	ListingID string
	Matches   []models.MatchCandidate
}

// ListingService turns drafts into listings and serves published ones.
type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	catalog     *catalog.Catalog
	matcher     Matcher
	archiver    photos.Archiver
	clock       common.Clock
	ids         common.IDGenerator
	logger      logging.Logger
}

func NewListingService(
	db *sql.DB,
	repomanager repomanager.RepositoryManager,
	cat *catalog.Catalog,
	matcher Matcher,
	archiver photos.Archiver,
	clock common.Clock,
	ids common.IDGenerator,
	logger logging.Logger,
) *ListingService {
	return &ListingService{
		db:          db,
		repomanager: repomanager,
		catalog:     cat,
		matcher:     matcher,
		archiver:    archiver,
		clock:       clock,
		ids:         ids,
		logger:      logger.With("module", "publish"),
	}
}

// Publish persists the draft of userID as a listing together with its photos
// and sealed secrets, deletes the user's session in the same transaction and
// then looks for matches. On error nothing is written, photos copied to
// storage are removed again and the session stays.
// A matching failure is logged and yields no matches.
func (s *ListingService) Publish(ctx context.Context, userID string, flow models.Flow, d *models.Draft) (*PublishResult, error) {
	if d == nil {
		return nil, ErrEmptyDraft
	}
	if userID == "" {
		return nil, ErrNoAuthor
	}
	if d.Category == "" {
		return nil, ErrNoCategory
	}

	listing := s.buildListing(userID, flow, *d)
	refs := s.archivePhotos(ctx, listing.ID, *d)
	secrets := sealedSecrets(*d)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Listings(tx)

		if err := repo.Create(ctx, listing); err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
		for _, ref := range refs {
			if err := repo.AddPhoto(ctx, s.ids.New(), listing.ID, ref); err != nil {
				return fmt.Errorf("insert photo: %w", err)
			}
		}
		for _, rec := range secrets {
			if err := repo.AddSecret(ctx, s.ids.New(), listing.ID, rec); err != nil {
				return fmt.Errorf("insert secret: %w", err)
			}
		}
		return s.repomanager.Sessions(tx).Delete(ctx, userID)
	})
	if err != nil {
		s.logger.Error(ctx, "publish failed", "user_id", userID, "error", err)
		if rmErr := s.archiver.Remove(context.WithoutCancel(ctx), refs); rmErr != nil {
			s.logger.Warn(ctx, "archived photos not removed", "listing_id", listing.ID, "error", rmErr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "listing published", "listing_id", listing.ID, "type", listing.Type,
		"category", listing.Category, "photos", len(refs), "secrets", len(secrets))

	matches, err := s.matcher.FindMatches(ctx, listing)
	if err != nil {
		s.logger.Warn(ctx, "matching failed", "listing_id", listing.ID, "error", err)
		matches = []models.MatchCandidate{}
	}

	return &PublishResult{ListingID: listing.ID, Matches: matches}, nil
}

func (s *ListingService) buildListing(userID string, flow models.Flow, d models.Draft) *models.Listing {
	fc := s.catalog.Flow(flow)

	subject, ok := s.catalog.PrimaryAnswer(d)
	if !ok {
		subject = s.catalog.CategoryTitle(d.Category)
	}

	l := &models.Listing{
		ID:          s.ids.New(),
		AuthorID:    userID,
		Type:        flow.ListingType(),
		Category:    d.Category,
		Title:       fc.TitlePrefix + ": " + subject,
		Description: s.describe(flow, d),
		OccurredAt:  timex.NormalizeTimestamp(d.OccurredAt, s.clock.Now()),
		Status:      models.ListingStatusActive,
	}
	if d.Location != nil {
		l.Lat = finite(d.Location.Lat)
		l.Lng = finite(d.Location.Lng)
	}
	return l
}

func (s *ListingService) describe(flow models.Flow, d models.Draft) string {
	msgs := s.catalog.Messages
	var parts []string

	if lines := s.catalog.AttributeLines(d); len(lines) > 0 {
		parts = append(parts, msgs.DescriptionDetails)
		for _, line := range lines {
			parts = append(parts, "- "+line)
		}
	}
	if d.LocationNote != "" {
		parts = append(parts, fmt.Sprintf(msgs.DescriptionLocation, d.LocationNote))
	}
	if flow == models.FlowFound {
		if disclaimer := s.catalog.Flow(flow).DescriptionDisclaimer; disclaimer != "" {
			parts = append(parts, disclaimer)
		}
	}
	return strings.Join(parts, "\n")
}

// archivePhotos returns at most MaxPhotos references. A photo that cannot
// be archived keeps its original reference.
func (s *ListingService) archivePhotos(ctx context.Context, listingID string, d models.Draft) []string {
	refs := make([]string, 0, models.MaxPhotos)
	for _, p := range d.Photos {
		if len(refs) == models.MaxPhotos {
			break
		}
		ref := p.Reference()
		if ref == "" {
			continue
		}
		stored, err := s.archiver.Archive(ctx, listingID, ref)
		if err != nil {
			s.logger.Warn(ctx, "photo not archived", "listing_id", listingID, "photo_id", p.ID, "error", err)
			stored = ref
		}
		refs = append(refs, stored)
	}
	return refs
}

func sealedSecrets(d models.Draft) []cryptox.Record {
	out := make([]cryptox.Record, 0, models.MaxSecrets)
	for _, rec := range d.EncryptedSecrets {
		if len(out) == models.MaxSecrets {
			break
		}
		if rec.Type == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Active returns published listings for the map. Photo references are
// resolved to fetchable URLs; unresolvable ones are dropped.
func (s *ListingService) Active(ctx context.Context, f listings.Filter) ([]*models.Listing, error) {
	if f.Limit <= 0 || f.Limit > MapListingLimit {
		f.Limit = MapListingLimit
	}
	rows, err := s.repomanager.Listings(s.db).SelectActive(ctx, f)
	if err != nil {
		return nil, err
	}

	for _, l := range rows {
		urls := make([]string, 0, len(l.Photos))
		for _, ref := range l.Photos {
			u, err := s.archiver.PublicURL(ctx, ref)
			if err != nil {
				s.logger.Warn(ctx, "photo url not resolved", "listing_id", l.ID, "error", err)
				continue
			}
			urls = append(urls, u)
		}
		l.Photos = urls
	}
	return rows, nil
}
