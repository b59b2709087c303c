package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/listings"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"
)

// maxEventBytes bounds an inbound event body.
const maxEventBytes = 1 << 20

type handlers struct {
	events   EventHandler
	listings ListingSource
	logger   logging.Logger
}

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/v1/events
func (h *handlers) postEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)

	var ev workflow.Event
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "event too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid event")
		return
	}

	if ev.Kind == "" {
		ev.Kind = workflow.EventText
	}
	switch ev.Kind {
	case workflow.EventText, workflow.EventCallback, workflow.EventCancel:
	default:
		writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}
	if strings.TrimSpace(ev.UserID) == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	resp := h.events.Handle(r.Context(), ev)
	if resp.Replies == nil {
		resp.Replies = []workflow.Reply{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type listingView struct {
	ID          string             `json:"id"`
	Type        models.ListingType `json:"type"`
	Category    string             `json:"category"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Lat         *float64           `json:"lat"`
	Lng         *float64           `json:"lng"`
	Precision   models.Precision   `json:"precision,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
	CreatedAt   time.Time          `json:"createdAt"`
	Photos      []string           `json:"photos"`
}

func newListingView(l *models.Listing) listingView {
	v := listingView{
		ID:          l.ID,
		Type:        l.Type,
		Category:    l.Category,
		Title:       l.Title,
		Description: l.Description,
		Lat:         l.Lat,
		Lng:         l.Lng,
		OccurredAt:  l.OccurredAt,
		CreatedAt:   l.CreatedAt,
		Photos:      l.Photos,
	}
	if v.Photos == nil {
		v.Photos = []string{}
	}
	if _, ok := l.Point(); ok {
		v.Precision = models.PrecisionPoint
		if l.Type == models.ListingFound {
			v.Precision = models.PrecisionArea
		}
	}
	return v
}

// GET /api/v1/listings?type=&category=
func (h *handlers) getListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f listings.Filter
	if t := strings.TrimSpace(q.Get("type")); t != "" {
		flow := models.Flow(strings.ToLower(t))
		if !flow.Valid() {
			writeError(w, http.StatusBadRequest, "type must be lost or found")
			return
		}
		f.Type = flow.ListingType()
	}
	f.Category = strings.TrimSpace(q.Get("category"))

	rows, err := h.listings.Active(r.Context(), f)
	if err != nil {
		h.logger.Error(r.Context(), "listing query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]listingView, 0, len(rows))
	for _, l := range rows {
		out = append(out, newListingView(l))
	}
	writeJSON(w, http.StatusOK, out)
}
