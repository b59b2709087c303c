package models

import "time"

// ListingStatusActive is the only status the core writes.
const ListingStatusActive = "ACTIVE"

// Listing is a published report.
type Listing struct {
	ID          string
	AuthorID    string
	Type        ListingType
	Category    string
	Title       string
	Description string
	// Lat and Lng are nil when no usable coordinate was given.
	Lat        *float64
	Lng        *float64
	OccurredAt time.Time
	CreatedAt  time.Time
	Status     string

	// Photos is filled only by queries that join photo rows.
	Photos []string
}

// Point returns the coordinate and whether both axes are set.
func (l *Listing) Point() (Point, bool) {
	if l.Lat == nil || l.Lng == nil {
		return Point{}, false
	}
	return Point{Lat: *l.Lat, Lng: *l.Lng}, true
}

// MatchCandidate is a ranked counterpart listing returned after publish.
type MatchCandidate struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// CandidateQuery selects active listings of one type inside a box.
// An empty Category matches every category.
type CandidateQuery struct {
	Type     ListingType
	Category string
	Box      BoundingBox
	Limit    int
}

// Session is the persisted workflow state of one user.
type Session struct {
	UserID    string
	Step      string
	Payload   []byte
	Version   int64
	UpdatedAt time.Time
}
