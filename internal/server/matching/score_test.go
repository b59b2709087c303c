package matching

import (
	"math"
	"testing"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestDefaultScorer_NearbySameCategory(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lost := &models.Listing{Type: models.ListingLost, Category: "pet", Title: "Lost: ginger cat", Lat: f64(55.7512), Lng: f64(37.6184), OccurredAt: at}
	found := &models.Listing{Type: models.ListingFound, Category: "pet", Title: "Found: ginger cat", Lat: f64(55.76), Lng: f64(37.63), OccurredAt: at.Add(2 * time.Hour)}

	s := NewDefaultScorer(5).Score(lost, found)
	assert.Greater(t, s, 70.0)
	assert.LessOrEqual(t, s, 100.0)
}

func TestDefaultScorer_Components(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	base := func() (*models.Listing, *models.Listing) {
		return &models.Listing{Category: "pet", Title: "Lost: cat", Lat: f64(1), Lng: f64(1), OccurredAt: at},
			&models.Listing{Category: "pet", Title: "Found: cat", Lat: f64(1), Lng: f64(1), OccurredAt: at}
	}
	sc := NewDefaultScorer(5)

	lost, found := base()
	assert.InDelta(t, 100, sc.Score(lost, found), 1e-9)

	lost, found = base()
	found.Category = "bag"
	assert.InDelta(t, 70, sc.Score(lost, found), 1e-9)

	lost, found = base()
	found.Title = "Found: dog"
	assert.InDelta(t, 85, sc.Score(lost, found), 1e-9)

	lost, found = base()
	found.Lat = f64(2)
	assert.InDelta(t, 60, sc.Score(lost, found), 1e-9)

	lost, found = base()
	found.OccurredAt = at.Add(7 * 24 * time.Hour)
	assert.InDelta(t, 92.5, sc.Score(lost, found), 1e-9)

	lost, found = base()
	found.OccurredAt = at.Add(-7 * 24 * time.Hour)
	assert.InDelta(t, 85, sc.Score(lost, found), 1e-9)
}

func TestDefaultScorer_MissingCoordinates(t *testing.T) {
	s := NewDefaultScorer(5).Score(&models.Listing{}, &models.Listing{Lat: f64(1), Lng: f64(1)})
	assert.True(t, math.IsNaN(s))
}

func TestTitleWords(t *testing.T) {
	assert.Equal(t, map[string]struct{}{"black": {}, "backpack": {}}, titleWords("Lost: Black backpack, a"))
	assert.InDelta(t, 1.0/3, jaccard(titleWords("red bag"), titleWords("blue bag")), 1e-9)
	assert.Zero(t, jaccard(titleWords(""), titleWords("bag")))
}
