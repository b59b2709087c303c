// Package matching finds counterpart listings for a newly published one:
// a bounding-box query over the opposite type, scoring and ranking.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dmitrijs2005/lostfound/internal/geo"
	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// CandidateFinder runs the pre-filter query.
type CandidateFinder interface {
	SelectCandidates(ctx context.Context, q models.CandidateQuery) ([]*models.Listing, error)
}

// Scorer rates how well a found item fits a lost report. Arguments are
// always passed as (lost, found). Non-finite results are discarded.
type Scorer interface {
	Score(lost, found *models.Listing) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(lost, found *models.Listing) float64

func (f ScorerFunc) Score(lost, found *models.Listing) float64 { return f(lost, found) }

// Options tune the search. Zero values are replaced by defaults, except
// Threshold, where only nil selects DefaultThreshold and zero keeps every
// finite score.
type Options struct {
	RadiusKm     float64
	Threshold    *float64
	Limit        int
	CandidateCap int
}

const (
	DefaultRadiusKm     = 5.0
	DefaultThreshold    = 50.0
	DefaultLimit        = 3
	DefaultCandidateCap = 50
)

func (o Options) withDefaults() Options {
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.Threshold == nil {
		t := DefaultThreshold
		o.Threshold = &t
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.CandidateCap <= 0 {
		o.CandidateCap = DefaultCandidateCap
	}
	return o
}

// Engine ranks candidates for one listing at a time. It is safe for
// concurrent use.
type Engine struct {
	finder CandidateFinder
	scorer Scorer
	opts   Options
	logger logging.Logger
}

func NewEngine(finder CandidateFinder, scorer Scorer, opts Options, logger logging.Logger) *Engine {
	if opts.Threshold != nil {
		t := *opts.Threshold
		opts.Threshold = &t
	}
	return &Engine{
		finder: finder,
		scorer: scorer,
		opts:   opts.withDefaults(),
		logger: logger.With("module", "matching"),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// FindMatches returns at most Limit candidates scoring at least Threshold,
// best first. A listing without finite coordinates has no matches.
func (e *Engine) FindMatches(ctx context.Context, l *models.Listing) ([]models.MatchCandidate, error) {
	p, ok := l.Point()
	if !ok || !geo.Finite(p) {
		return []models.MatchCandidate{}, nil
	}

	rows, err := e.finder.SelectCandidates(ctx, models.CandidateQuery{
		Type:     l.Type.Opposite(),
		Category: l.Category,
		Box:      geo.BoundingBox(p, e.opts.RadiusKm),
		Limit:    e.opts.CandidateCap,
	})
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	scored := make([]models.MatchCandidate, 0, len(rows))
	for _, c := range rows {
		if c.ID == l.ID {
			continue
		}

		var s float64
		if l.Type == models.ListingLost {
			s = e.scorer.Score(l, c)
		} else {
			s = e.scorer.Score(c, l)
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		scored = append(scored, models.MatchCandidate{ID: c.ID, Title: c.Title, Score: s})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	result := make([]models.MatchCandidate, 0, e.opts.Limit)
	for _, m := range scored {
		if m.Score < *e.opts.Threshold || len(result) == e.opts.Limit {
			break
		}
		result = append(result, m)
	}

	e.logger.Debug(ctx, "matching done", "listing_id", l.ID, "candidates", len(rows), "matches", len(result))
	return result, nil
}
