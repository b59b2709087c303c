package matching

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/lostfound/internal/geo"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// Weights of DefaultScorer, summing to 100.
const (
	categoryWeight = 30.0
	distanceWeight = 40.0
	timeWeight     = 15.0
	titleWeight    = 15.0
)

// DefaultScorer combines category equality, distance, occurrence time and
// title word overlap into a 0..100 score.
type DefaultScorer struct {
	// RadiusKm is where the distance component reaches zero.
	RadiusKm float64
	// Window is where the time component reaches zero.
	Window time.Duration
}

// NewDefaultScorer returns a scorer with a 14 day window.
func NewDefaultScorer(radiusKm float64) DefaultScorer {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return DefaultScorer{RadiusKm: radiusKm, Window: 14 * 24 * time.Hour}
}

func (s DefaultScorer) Score(lost, found *models.Listing) float64 {
	lp, ok1 := lost.Point()
	fp, ok2 := found.Point()
	if !ok1 || !ok2 || !geo.Finite(lp) || !geo.Finite(fp) {
		return math.NaN()
	}

	score := 0.0
	if lost.Category != "" && lost.Category == found.Category {
		score += categoryWeight
	}

	if d := geo.DistanceKm(lp, fp); d < s.RadiusKm {
		score += distanceWeight * (1 - d/s.RadiusKm)
	}

	score += timeWeight * s.timeCloseness(lost.OccurredAt, found.OccurredAt)
	score += titleWeight * jaccard(titleWords(lost.Title), titleWords(found.Title))

	return score
}

// timeCloseness is 1 for equal times and decays linearly over the window.
// A find dated before the loss decays twice as fast.
func (s DefaultScorer) timeCloseness(lostAt, foundAt time.Time) float64 {
	if lostAt.IsZero() || foundAt.IsZero() || s.Window <= 0 {
		return 0
	}
	gap := foundAt.Sub(lostAt)
	if gap < 0 {
		gap = -2 * gap
	}
	return math.Max(0, 1-float64(gap)/float64(s.Window))
}

// titleWords returns the lowercase words of a title after its "Prefix: ".
func titleWords(title string) map[string]struct{} {
	if _, rest, ok := strings.Cut(title, ": "); ok {
		title = rest
	}
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) > 1 {
			words[w] = struct{}{}
		}
	}
	return words
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
