// Package httpapi is the HTTP transport of the server: the authenticated
// event webhook, the public map listing and a health probe.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/listings"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"
	"github.com/rs/cors"
)

// EventHandler runs one inbound chat event.
type EventHandler interface {
	Handle(ctx context.Context, ev workflow.Event) workflow.Response
}

// ListingSource serves the public map.
type ListingSource interface {
	Active(ctx context.Context, f listings.Filter) ([]*models.Listing, error)
}

// Options configure the router.
type Options struct {
	WebhookSecret  []byte
	AllowedOrigins []string
}

// NewRouter wires routes and middleware.
func NewRouter(events EventHandler, source ListingSource, opts Options, logger logging.Logger) http.Handler {
	h := &handlers{events: events, listings: source, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.Handle("POST /api/v1/events", requireToken(opts.WebhookSecret, logger, http.HandlerFunc(h.postEvent)))
	mux.HandleFunc("GET /api/v1/listings", h.getListings)

	c := cors.New(corsOptions(opts.AllowedOrigins))
	return accessLog(logger, c.Handler(mux))
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
}
