package workflow

import (
	"time"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// Payload is the JSON document stored with a session.
type Payload struct {
	Flow    models.Flow  `json:"flow"`
	Listing models.Draft `json:"listing"`
	Meta    Meta         `json:"meta"`
}

// Meta carries workflow bookkeeping that is not part of the listing.
type Meta struct {
	StartedAt time.Time `json:"startedAt"`
	// CurrentAttributeKey is the field the last attributes prompt asked.
	CurrentAttributeKey string `json:"currentAttributeKey,omitempty"`
}

func newPayload(flow models.Flow, now time.Time) Payload {
	return Payload{
		Flow:    flow,
		Listing: models.NewDraft(flow),
		Meta:    Meta{StartedAt: now.UTC()},
	}
}

// withDraft returns a copy of p holding d.
func (p Payload) withDraft(d models.Draft) Payload {
	p.Listing = d
	return p
}

// withCurrentKey returns a copy of p asking key next.
func (p Payload) withCurrentKey(key string) Payload {
	p.Meta.CurrentAttributeKey = key
	return p
}
