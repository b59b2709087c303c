// Package models defines the lost&found domain types shared by the workflow,
// persistence and matching layers.
package models

// Flow is one of the two symmetric reporting scenarios.
type Flow string

const (
	FlowLost  Flow = "lost"
	FlowFound Flow = "found"
)

// Valid reports whether f names a known flow.
func (f Flow) Valid() bool {
	return f == FlowLost || f == FlowFound
}

// ListingType maps the flow to the type stored on a published listing.
func (f Flow) ListingType() ListingType {
	if f == FlowLost {
		return ListingLost
	}
	return ListingFound
}

// ListingType is the persisted side of a report.
type ListingType string

const (
	ListingLost  ListingType = "LOST"
	ListingFound ListingType = "FOUND"
)

// Opposite returns the type a listing is matched against.
func (t ListingType) Opposite() ListingType {
	if t == ListingLost {
		return ListingFound
	}
	return ListingLost
}

// Flow maps a listing type back to its flow.
func (t ListingType) Flow() Flow {
	if t == ListingLost {
		return FlowLost
	}
	return FlowFound
}
