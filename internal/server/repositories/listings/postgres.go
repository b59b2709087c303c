// Package listings provides PostgreSQL-backed storage for published
// listings, their photos and their sealed secrets.
package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/dbx"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/timex"
)

const listingColumns = `id, author_id, type, category, title, description, lat, lng, occurred_at, created_at, status`

// PostgresRepository implements listing storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts l with the caller-assigned id and fills CreatedAt and Status.
// OccurredAt is written in the fixed-width timex.DateTimeLayout form.
func (r *PostgresRepository) Create(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (id, author_id, type, category, title, description, lat, lng, occurred_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	if l.Status == "" {
		l.Status = models.ListingStatusActive
	}
	err := r.db.QueryRowContext(ctx, query,
		l.ID, l.AuthorID, string(l.Type), l.Category, l.Title, l.Description,
		l.Lat, l.Lng, timex.FormatDateTime(l.OccurredAt), l.Status,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AddPhoto stores one photo reference of a listing.
func (r *PostgresRepository) AddPhoto(ctx context.Context, id, listingID, url string) error {
	query := `
		INSERT INTO photos (id, listing_id, url)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, id, listingID, url); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AddSecret stores one cipher record of a listing as JSON.
func (r *PostgresRepository) AddSecret(ctx context.Context, id, listingID string, rec cryptox.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal secret: %w", err)
	}
	query := `
		INSERT INTO secrets (id, listing_id, cipher)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, id, listingID, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectCandidates returns active listings of q.Type inside q.Box, newest
// first, at most q.Limit rows.
func (r *PostgresRepository) SelectCandidates(ctx context.Context, q models.CandidateQuery) ([]*models.Listing, error) {
	where := []string{"status = 'ACTIVE'", "type = $1"}
	args := []any{string(q.Type)}

	if q.Category != "" {
		args = append(args, q.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	args = append(args, q.Box.MinLat, q.Box.MaxLat, q.Box.MinLng, q.Box.MaxLng)
	n := len(args)
	where = append(where,
		fmt.Sprintf("lat BETWEEN $%d AND $%d", n-3, n-2),
		fmt.Sprintf("lng BETWEEN $%d AND $%d", n-1, n),
	)

	args = append(args, q.Limit)
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		listingColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select candidates: %w", err)
	}
	defer rows.Close()

	var result []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SelectActive returns active listings for the map with their photo
// references, newest first.
func (r *PostgresRepository) SelectActive(ctx context.Context, f Filter) ([]*models.Listing, error) {
	where := []string{"status = 'ACTIVE'"}
	var args []any

	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	args = append(args, f.Limit)

	query := fmt.Sprintf(`
		SELECT l.id, l.author_id, l.type, l.category, l.title, l.description, l.lat, l.lng,
			l.occurred_at, l.created_at, l.status, p.url
		FROM (SELECT %s FROM listings WHERE %s ORDER BY created_at DESC LIMIT $%d) l
		LEFT JOIN photos p ON p.listing_id = l.id
		ORDER BY l.created_at DESC, l.id, p.created_at`,
		listingColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select listings: %w", err)
	}
	defer rows.Close()

	var result []*models.Listing
	byID := map[string]*models.Listing{}
	for rows.Next() {
		var (
			l        models.Listing
			typ      string
			lat, lng sql.NullFloat64
			url      sql.NullString
		)
		if err := rows.Scan(
			&l.ID, &l.AuthorID, &typ, &l.Category, &l.Title, &l.Description, &lat, &lng,
			&l.OccurredAt, &l.CreatedAt, &l.Status, &url,
		); err != nil {
			return nil, err
		}

		cur, ok := byID[l.ID]
		if !ok {
			l.Type = models.ListingType(typ)
			l.Lat, l.Lng = nullable(lat), nullable(lng)
			cur = &l
			byID[l.ID] = cur
			result = append(result, cur)
		}
		if url.Valid {
			cur.Photos = append(cur.Photos, url.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanListing(rows *sql.Rows) (*models.Listing, error) {
	var (
		l        models.Listing
		typ      string
		lat, lng sql.NullFloat64
	)
	if err := rows.Scan(
		&l.ID, &l.AuthorID, &typ, &l.Category, &l.Title, &l.Description, &lat, &lng,
		&l.OccurredAt, &l.CreatedAt, &l.Status,
	); err != nil {
		return nil, err
	}
	l.Type = models.ListingType(typ)
	l.Lat, l.Lng = nullable(lat), nullable(lng)
	return &l, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ Repository = (*PostgresRepository)(nil)
