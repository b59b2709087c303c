package models

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/cryptox"
)

const (
	MaxPhotos         = 3
	MaxSecrets        = 3
	MaxPendingSecrets = 3

	// PhotoTokenPrefix marks photos known only by a transport token.
	PhotoTokenPrefix = "photo-token:"
)

// Photo is an attachment received in the photo step.
type Photo struct {
	ID    string `json:"id"`
	URL   string `json:"url,omitempty"`
	Token string `json:"token,omitempty"`
}

// Reference returns the URL, a token placeholder, or "" if neither is set.
func (p Photo) Reference() string {
	switch {
	case p.URL != "":
		return p.URL
	case p.Token != "":
		return PhotoTokenPrefix + p.Token
	default:
		return ""
	}
}

// PendingSecret is an attribute answer suggested as a verification secret.
type PendingSecret struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Draft is the in-progress listing carried in the session payload.
//
// Draft values are never mutated in place: every With* method returns a copy
// that shares no maps or slices with the receiver. In Attributes an explicit
// nil value means the question was skipped; a missing key means it was never
// asked.
type Draft struct {
	Type             ListingType        `json:"type"`
	Category         string             `json:"category,omitempty"`
	Details          string             `json:"details,omitempty"`
	Attributes       map[string]*string `json:"attributes"`
	Photos           []Photo            `json:"photos"`
	Location         *Location          `json:"location"`
	LocationOriginal *Point             `json:"locationOriginal"`
	LocationNote     string             `json:"locationNote,omitempty"`
	OccurredAt       *time.Time         `json:"occurredAt,omitempty"`
	Secrets          []string           `json:"secrets"`
	EncryptedSecrets []cryptox.Record   `json:"encryptedSecrets"`
	PendingSecrets   []PendingSecret    `json:"pendingSecrets"`
}

// NewDraft returns an empty draft for flow.
func NewDraft(flow Flow) Draft {
	return Draft{
		Type:             flow.ListingType(),
		Attributes:       map[string]*string{},
		Photos:           []Photo{},
		Secrets:          []string{},
		EncryptedSecrets: []cryptox.Record{},
		PendingSecrets:   []PendingSecret{},
	}
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	c := d

	c.Attributes = make(map[string]*string, len(d.Attributes))
	for k, v := range d.Attributes {
		if v == nil {
			c.Attributes[k] = nil
			continue
		}
		s := *v
		c.Attributes[k] = &s
	}

	c.Photos = append([]Photo{}, d.Photos...)
	c.Secrets = append([]string{}, d.Secrets...)
	c.EncryptedSecrets = append([]cryptox.Record{}, d.EncryptedSecrets...)
	c.PendingSecrets = append([]PendingSecret{}, d.PendingSecrets...)

	if d.Location != nil {
		loc := *d.Location
		c.Location = &loc
	}
	if d.LocationOriginal != nil {
		p := *d.LocationOriginal
		c.LocationOriginal = &p
	}
	if d.OccurredAt != nil {
		t := *d.OccurredAt
		c.OccurredAt = &t
	}
	return c
}

// HasAnswer reports whether key was asked, including skipped answers.
func (d Draft) HasAnswer(key string) bool {
	_, ok := d.Attributes[key]
	return ok
}

// Answer returns the trimmed-as-stored value for key. ok is false when the
// key is absent or was skipped.
func (d Draft) Answer(key string) (value string, ok bool) {
	v, found := d.Attributes[key]
	if !found || v == nil {
		return "", false
	}
	return *v, true
}

// AnswerCount returns the number of asked attributes.
func (d Draft) AnswerCount() int { return len(d.Attributes) }

// WithCategory selects a category and resets everything derived from the
// previous one.
func (d Draft) WithCategory(id string) Draft {
	c := d.Clone()
	c.Category = id
	c.Details = ""
	c.Attributes = map[string]*string{}
	c.PendingSecrets = []PendingSecret{}
	return c
}

// WithAnswer records an answer for key. A nil value records a skip. When
// secretHint is set the answer also replaces any pending secret for key.
func (d Draft) WithAnswer(key string, value *string, secretHint bool) Draft {
	c := d.Clone()
	if value != nil {
		v := *value
		value = &v
	}
	c.Attributes[key] = value

	if secretHint {
		c.PendingSecrets = slices.DeleteFunc(c.PendingSecrets, func(p PendingSecret) bool {
			return p.Key == key
		})
		if value != nil && len(c.PendingSecrets) < MaxPendingSecrets {
			c.PendingSecrets = append(c.PendingSecrets, PendingSecret{Key: key, Value: *value})
		}
	}
	return c
}

// WithPhotos appends attachments up to MaxPhotos, skipping ids already
// present. It returns the new draft with the number added and skipped.
func (d Draft) WithPhotos(attachments []Photo) (Draft, int, int) {
	c := d.Clone()

	seen := make(map[string]struct{}, len(c.Photos))
	for _, p := range c.Photos {
		seen[p.ID] = struct{}{}
	}

	added, skipped := 0, 0
	for _, a := range attachments {
		if len(c.Photos) >= MaxPhotos {
			skipped++
			continue
		}
		if _, dup := seen[a.ID]; dup {
			skipped++
			continue
		}
		c.Photos = append(c.Photos, a)
		seen[a.ID] = struct{}{}
		added++
	}
	return c, added, skipped
}

// WithLocationNote sets the free-text location. Empty notes are ignored.
func (d Draft) WithLocationNote(note string) Draft {
	c := d.Clone()
	if note != "" {
		c.LocationNote = note
	}
	return c
}

// WithLocation stores the public and the private coordinate.
func (d Draft) WithLocation(public Location, original Point) Draft {
	c := d.Clone()
	c.Location = &public
	c.LocationOriginal = &original
	return c
}

// WithSecrets replaces the secrets and clears pending hints.
func (d Draft) WithSecrets(plain []string, sealed []cryptox.Record) Draft {
	c := d.Clone()
	c.Secrets = append([]string{}, plain...)
	c.EncryptedSecrets = append([]cryptox.Record{}, sealed...)
	c.PendingSecrets = []PendingSecret{}
	return c
}
