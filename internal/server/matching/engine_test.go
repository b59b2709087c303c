package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	rows  []*models.Listing
	err   error
	calls []models.CandidateQuery
}

func (f *fakeFinder) SelectCandidates(_ context.Context, q models.CandidateQuery) ([]*models.Listing, error) {
	f.calls = append(f.calls, q)
	return f.rows, f.err
}

func f64(v float64) *float64 { return &v }

func listing(id string, typ models.ListingType, lat, lng float64) *models.Listing {
	return &models.Listing{ID: id, Type: typ, Category: "pet", Title: id, Lat: f64(lat), Lng: f64(lng)}
}

func byID(scores map[string]float64) ScorerFunc {
	return func(lost, found *models.Listing) float64 {
		if s, ok := scores[found.ID]; ok {
			return s
		}
		return scores[lost.ID]
	}
}

func TestFindMatches_LostAgainstFound(t *testing.T) {
	lost := listing("lost-1", models.ListingLost, 55.7512, 37.6184)
	finder := &fakeFinder{rows: []*models.Listing{
		listing("f-70", models.ListingFound, 55.76, 37.63),
		listing("f-49", models.ListingFound, 55.76, 37.63),
	}}

	e := NewEngine(finder, byID(map[string]float64{"f-70": 70, "f-49": 49}), Options{}, logging.Nop{})

	got, err := e.FindMatches(context.Background(), lost)
	require.NoError(t, err)
	assert.Equal(t, []models.MatchCandidate{{ID: "f-70", Title: "f-70", Score: 70}}, got)

	require.Len(t, finder.calls, 1)
	q := finder.calls[0]
	assert.Equal(t, models.ListingFound, q.Type)
	assert.Equal(t, "pet", q.Category)
	assert.Equal(t, 50, q.Limit)
	assert.InDelta(t, 55.7512-5/111.0, q.Box.MinLat, 1e-12)
	assert.InDelta(t, 37.6184+5/111.0, q.Box.MaxLng, 1e-12)
}

func TestFindMatches_ArgumentOrderIsLostThenFound(t *testing.T) {
	found := listing("found-1", models.ListingFound, 55.76, 37.63)
	finder := &fakeFinder{rows: []*models.Listing{listing("lost-1", models.ListingLost, 55.7512, 37.6184)}}

	var gotLost, gotFound string
	scorer := ScorerFunc(func(lost, found *models.Listing) float64 {
		gotLost, gotFound = lost.ID, found.ID
		return 80
	})

	got, err := NewEngine(finder, scorer, Options{}, logging.Nop{}).FindMatches(context.Background(), found)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lost-1", gotLost)
	assert.Equal(t, "found-1", gotFound)
	assert.Equal(t, models.ListingLost, finder.calls[0].Type)
}

func TestFindMatches_RanksAndCaps(t *testing.T) {
	lost := listing("lost-1", models.ListingLost, 55.75, 37.61)
	scores := map[string]float64{"a": 55, "b": 90, "c": math.NaN(), "d": 75, "e": 60, "f": math.Inf(1), "g": 50}
	var rows []*models.Listing
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		rows = append(rows, listing(id, models.ListingFound, 55.75, 37.61))
	}

	got, err := NewEngine(&fakeFinder{rows: rows}, byID(scores), Options{}, logging.Nop{}).
		FindMatches(context.Background(), lost)
	require.NoError(t, err)

	ids := []string{}
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"b", "d", "e"}, ids)
}

func TestFindMatches_SkipsSelf(t *testing.T) {
	lost := listing("x", models.ListingLost, 1, 1)
	finder := &fakeFinder{rows: []*models.Listing{listing("x", models.ListingFound, 1, 1)}}

	got, err := NewEngine(finder, byID(map[string]float64{"x": 99}), Options{}, logging.Nop{}).
		FindMatches(context.Background(), lost)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindMatches_NoCoordinates(t *testing.T) {
	finder := &fakeFinder{}
	e := NewEngine(finder, byID(nil), Options{}, logging.Nop{})

	got, err := e.FindMatches(context.Background(), &models.Listing{ID: "x", Type: models.ListingLost})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.FindMatches(context.Background(), listing("y", models.ListingLost, math.NaN(), 1))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, finder.calls)
}

func TestFindMatches_FinderError(t *testing.T) {
	e := NewEngine(&fakeFinder{err: errors.New("db down")}, byID(nil), Options{}, logging.Nop{})

	_, err := e.FindMatches(context.Background(), listing("x", models.ListingLost, 1, 1))
	assert.ErrorContains(t, err, "db down")
}

func TestOptions_Custom(t *testing.T) {
	e := NewEngine(&fakeFinder{}, byID(nil), Options{RadiusKm: 2, Threshold: f64(10), Limit: 5, CandidateCap: 20}, logging.Nop{})
	assert.Equal(t, Options{RadiusKm: 2, Threshold: f64(10), Limit: 5, CandidateCap: 20}, e.Options())

	d := NewEngine(&fakeFinder{}, byID(nil), Options{}, logging.Nop{}).Options()
	assert.Equal(t, Options{RadiusKm: 5, Threshold: f64(50), Limit: 3, CandidateCap: 50}, d)
}

func TestFindMatches_ZeroThresholdKeepsLowScores(t *testing.T) {
	lost := listing("lost-1", models.ListingLost, 55.7512, 37.6184)
	finder := &fakeFinder{rows: []*models.Listing{
		listing("f-12", models.ListingFound, 55.76, 37.63),
		listing("f-0", models.ListingFound, 55.76, 37.63),
		listing("f-neg", models.ListingFound, 55.76, 37.63),
	}}
	scores := map[string]float64{"f-12": 12, "f-0": 0, "f-neg": -1}

	got, err := NewEngine(finder, byID(scores), Options{Threshold: f64(0)}, logging.Nop{}).
		FindMatches(context.Background(), lost)
	require.NoError(t, err)
	assert.Equal(t, []models.MatchCandidate{
		{ID: "f-12", Title: "f-12", Score: 12},
		{ID: "f-0", Title: "f-0", Score: 0},
	}, got)
}

func TestNewEngine_CopiesThreshold(t *testing.T) {
	th := 30.0
	e := NewEngine(&fakeFinder{}, byID(nil), Options{Threshold: &th}, logging.Nop{})
	th = 90
	assert.Equal(t, 30.0, *e.Options().Threshold)
}
