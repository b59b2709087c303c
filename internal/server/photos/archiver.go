// Package photos copies listing photos into object storage at publish time
// and turns stored references back into URLs the map can load.
package photos

import (
	"context"
	"strings"
)

// RefPrefix marks references stored in the bucket.
const RefPrefix = "s3://"

// Archiver stores photo references for a listing.
type Archiver interface {
	// Archive returns the reference to persist for ref. References the
	// archiver cannot copy are returned unchanged with a nil error.
	Archive(ctx context.Context, listingID, ref string) (string, error)
	// PublicURL resolves a persisted reference into a fetchable URL.
	PublicURL(ctx context.Context, ref string) (string, error)
	// Remove deletes the stored copies among refs. References the archiver
	// did not create are ignored.
	Remove(ctx context.Context, refs []string) error
}

// Passthrough keeps references as they are. It is used when no bucket is
// configured.
type Passthrough struct{}

func (Passthrough) Archive(_ context.Context, _ string, ref string) (string, error) { return ref, nil }
func (Passthrough) PublicURL(_ context.Context, ref string) (string, error)         { return ref, nil }
func (Passthrough) Remove(context.Context, []string) error                          { return nil }

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
