package listings

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingCols = []string{"id", "author_id", "type", "category", "title", "description", "lat", "lng", "occurred_at", "created_at", "status"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func f64(v float64) *float64 { return &v }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 5, 1, 10, 0, 1, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT INTO listings \(id, author_id, type, category, title, description, lat, lng, occurred_at, status\).*RETURNING created_at`).
		WithArgs("l1", "u1", "FOUND", "pet", "Found: cat", "desc", 55.76, 37.62, "2025-05-01 09:30:00", "ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	l := &models.Listing{
		ID: "l1", AuthorID: "u1", Type: models.ListingFound, Category: "pet",
		Title: "Found: cat", Description: "desc", Lat: f64(55.76), Lng: f64(37.62),
		OccurredAt: time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), l))
	assert.Equal(t, created, l.CreatedAt)
	assert.Equal(t, models.ListingStatusActive, l.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullCoordinates(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO listings`).
		WithArgs("l1", "u1", "LOST", "keys", "Lost: keys", "", nil, nil, sqlmock.AnyArg(), "ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	l := &models.Listing{ID: "l1", AuthorID: "u1", Type: models.ListingLost, Category: "keys", Title: "Lost: keys"}
	require.NoError(t, repo.Create(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO listings`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Listing{ID: "l1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestAddPhotoAndSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO photos \(id, listing_id, url\)`).
		WithArgs("p1", "l1", "https://cdn/x.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO secrets \(id, listing_id, cipher\)`).
		WithArgs("s1", "l1", []byte(`{"type":"plain","value":"red collar"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddPhoto(context.Background(), "p1", "l1", "https://cdn/x.jpg"))
	require.NoError(t, repo.AddSecret(context.Background(), "s1", "l1", cryptox.Record{Type: cryptox.TypePlain, Value: "red collar"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPhoto_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO photos`).WillReturnError(errors.New("db down"))
	assert.Error(t, repo.AddPhoto(context.Background(), "p1", "l1", "u"))

	mock.ExpectExec(`INSERT INTO secrets`).WillReturnError(errors.New("db down"))
	assert.Error(t, repo.AddSecret(context.Background(), "s1", "l1", cryptox.Record{Type: "plain"}))
}

func TestSelectCandidates_WithCategory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	box := models.BoundingBox{MinLat: 55.7, MaxLat: 55.8, MinLng: 37.5, MaxLng: 37.7}
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, .* FROM listings WHERE status = 'ACTIVE' AND type = \$1 AND category = \$2 AND lat BETWEEN \$3 AND \$4 AND lng BETWEEN \$5 AND \$6 ORDER BY created_at DESC LIMIT \$7`).
		WithArgs("FOUND", "pet", 55.7, 55.8, 37.5, 37.7, 50).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow("f1", "u2", "FOUND", "pet", "Found: cat", "", 55.76, 37.63, now, now, "ACTIVE").
			AddRow("f2", "u3", "FOUND", "pet", "Found: dog", "", nil, nil, now, now, "ACTIVE"))

	got, err := repo.SelectCandidates(context.Background(), models.CandidateQuery{
		Type: models.ListingFound, Category: "pet", Box: box, Limit: 50,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ListingFound, got[0].Type)
	p, ok := got[0].Point()
	assert.True(t, ok)
	assert.Equal(t, models.Point{Lat: 55.76, Lng: 37.63}, p)

	_, ok = got[1].Point()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectCandidates_AnyCategory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE status = 'ACTIVE' AND type = \$1 AND lat BETWEEN \$2 AND \$3 AND lng BETWEEN \$4 AND \$5 ORDER BY created_at DESC LIMIT \$6`).
		WithArgs("LOST", 1.0, 2.0, 3.0, 4.0, 10).
		WillReturnRows(sqlmock.NewRows(listingCols))

	got, err := repo.SelectCandidates(context.Background(), models.CandidateQuery{
		Type: models.ListingLost, Box: models.BoundingBox{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4}, Limit: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectCandidates_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("boom"))

	_, err := repo.SelectCandidates(context.Background(), models.CandidateQuery{Type: models.ListingLost})
	assert.ErrorContains(t, err, "failed to select candidates")
}

func TestSelectCandidates_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("x"))

	_, err := repo.SelectCandidates(context.Background(), models.CandidateQuery{Type: models.ListingLost})
	assert.Error(t, err)
}

func TestSelectActive_GroupsPhotos(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	cols := append(append([]string{}, listingCols...), "url")

	mock.ExpectQuery(`(?s)FROM \(SELECT .* FROM listings WHERE status = 'ACTIVE' AND type = \$1 ORDER BY created_at DESC LIMIT \$2\) l\s+LEFT JOIN photos p`).
		WithArgs("FOUND", 100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "u1", "FOUND", "bag", "Found: backpack", "", 55.76, 37.62, now, now, "ACTIVE", "s3://a").
			AddRow("f1", "u1", "FOUND", "bag", "Found: backpack", "", 55.76, 37.62, now, now, "ACTIVE", "s3://b").
			AddRow("f2", "u2", "FOUND", "keys", "Found: keys", "", nil, nil, now, now, "ACTIVE", nil))

	got, err := repo.SelectActive(context.Background(), Filter{Type: models.ListingFound, Limit: 100})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"s3://a", "s3://b"}, got[0].Photos)
	assert.Empty(t, got[1].Photos)
	assert.Nil(t, got[1].Lat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectActive_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("pet", 5).WillReturnError(errors.New("boom"))

	_, err := repo.SelectActive(context.Background(), Filter{Category: "pet", Limit: 5})
	assert.ErrorContains(t, err, "failed to select listings")
}
