package workflow

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/lostfound/internal/geo"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// minAnswerLength applies to required attribute answers.
const minAnswerLength = 2

var secretSeparators = regexp.MustCompile(`\r?\n|[,;]`)

// input is the normalized content of a text event.
type input struct {
	text       string
	lower      string
	coordinate *models.Point
	photos     []models.Photo
}

func (e *Engine) onAttributes(ctx context.Context, st *state, in input, out *Response) error {
	msgs := &e.catalog.Messages
	p := st.payload

	if p.Listing.Category == "" {
		out.reply(msgs.ChooseCategoryFirst)
		return e.transition(ctx, st, StepFor(st.flow, StageCategory), p, out)
	}

	field, ok := e.catalog.Field(p.Listing.Category, p.Meta.CurrentAttributeKey)
	if !ok || p.Listing.HasAnswer(field.Key) {
		return e.transition(ctx, st, st.step, p, out)
	}

	skip := e.catalog.IsSkip(in.lower)
	if !skip {
		if in.text == "" {
			if field.Required {
				out.reply(msgs.AnswerMissing)
			} else {
				out.reply(msgs.AnswerOptionalMissing)
			}
			return nil
		}
		if field.Required && utf8.RuneCountInString(in.text) < minAnswerLength {
			out.reply(msgs.AnswerTooShort)
			return nil
		}
	}

	var value *string
	if !skip {
		value = &in.text
	}
	d := p.Listing.WithAnswer(field.Key, value, field.SecretHint)
	return e.transition(ctx, st, st.step, p.withDraft(d).withCurrentKey(""), out)
}

func (e *Engine) onPhoto(ctx context.Context, st *state, in input, out *Response) error {
	msgs := &e.catalog.Messages
	p := st.payload
	next := StepFor(st.flow, StageLocation)

	if e.catalog.IsSkip(in.lower) {
		out.reply(msgs.PhotoSkipped)
		return e.transition(ctx, st, next, p, out)
	}

	if e.catalog.IsDone(in.lower) {
		if len(p.Listing.Photos) == 0 {
			out.reply(msgs.PhotoNone)
			return nil
		}
		out.reply(msgs.PhotoSaved)
		return e.transition(ctx, st, next, p, out)
	}

	if len(in.photos) == 0 {
		out.reply(msgs.PhotoMissing)
		return nil
	}

	d, added, skipped := p.Listing.WithPhotos(in.photos)
	if added == 0 {
		out.reply(msgs.PhotoRejected)
		return nil
	}

	p = p.withDraft(d)
	if len(d.Photos) >= models.MaxPhotos {
		out.reply(fmt.Sprintf(msgs.PhotoLimit, models.MaxPhotos))
		return e.transition(ctx, st, next, p, out)
	}

	if err := e.save(ctx, st, st.step, p); err != nil {
		return err
	}

	text := fmt.Sprintf(msgs.PhotoCount, len(d.Photos), models.MaxPhotos)
	if skipped > 0 {
		text += fmt.Sprintf(msgs.PhotoDropped, models.MaxPhotos)
	}
	out.reply(text)
	return nil
}

func (e *Engine) onLocation(ctx context.Context, st *state, in input, out *Response) error {
	msgs := &e.catalog.Messages
	p := st.payload
	next := StepFor(st.flow, StageSecrets)

	if e.catalog.IsSkip(in.lower) {
		out.reply(msgs.LocationSkipped)
		return e.transition(ctx, st, next, p, out)
	}

	point := in.coordinate
	if point != nil && !geo.Finite(*point) {
		point = nil
	}
	if in.text == "" && point == nil {
		out.reply(msgs.LocationMissing)
		return nil
	}

	d := p.Listing.WithLocationNote(in.text)
	if point != nil {
		public, original := geo.Generalize(st.flow, *point)
		d = d.WithLocation(public, original)
	}
	return e.transition(ctx, st, next, p.withDraft(d), out)
}

func (e *Engine) onSecrets(ctx context.Context, st *state, in input, out *Response) error {
	p := st.payload

	var plain []string
	if !e.catalog.IsSkip(in.lower) {
		plain = splitSecrets(in.text)
	}

	sealed, err := e.sealer.Encrypt(ctx, plain)
	if err != nil {
		return fmt.Errorf("seal secrets: %w", err)
	}

	d := p.Listing.WithSecrets(plain, sealed)
	return e.transition(ctx, st, StepFor(st.flow, StageConfirm), p.withDraft(d), out)
}

// splitSecrets splits on newlines, commas and semicolons and keeps at most
// MaxSecrets non-empty entries.
func splitSecrets(text string) []string {
	var out []string
	for _, part := range secretSeparators.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == models.MaxSecrets {
			break
		}
	}
	return out
}

func (e *Engine) onCategoryCallback(ctx context.Context, st *state, cb Callback, out *Response) error {
	msgs := &e.catalog.Messages

	if cb.Action != ActionCategory {
		out.notify(msgs.Unavailable)
		return nil
	}

	cat, err := e.catalog.Lookup(cb.Value)
	if err != nil {
		out.notify(msgs.UnknownCategory)
		return nil
	}

	p := st.payload
	d := p.Listing.WithCategory(cat.ID)
	if err := e.transition(ctx, st, StepFor(st.flow, StageAttributes), p.withDraft(d).withCurrentKey(""), out); err != nil {
		return err
	}
	out.notify(cat.Label())
	return nil
}

func (e *Engine) onConfirmCallback(ctx context.Context, st *state, cb Callback, out *Response) error {
	msgs := &e.catalog.Messages

	if cb.Action != ActionConfirm {
		out.notify(msgs.Unavailable)
		return nil
	}

	switch cb.Value {
	case ConfirmPublish:
		return e.publish(ctx, st, out)
	case ConfirmEdit:
		if err := e.transition(ctx, st, StepFor(st.flow, StageAttributes), st.payload, out); err != nil {
			return err
		}
		out.notify(msgs.EditSelected)
		return nil
	default:
		out.notify(msgs.UnknownAction)
		return nil
	}
}

// publish hands the draft to the publisher. A failed publish keeps the
// session so the user can press the button again.
func (e *Engine) publish(ctx context.Context, st *state, out *Response) error {
	msgs := &e.catalog.Messages
	out.notify(msgs.Publishing)

	d := st.payload.Listing.Clone()
	res, err := e.publisher.Publish(ctx, st.userID, st.flow, &d)
	if err != nil {
		e.logger.Error(ctx, "publish failed", "user_id", st.userID, "flow", string(st.flow), "error", err)
		out.reply(msgs.PublishFailed)
		return nil
	}

	e.logger.Info(ctx, "listing published", "user_id", st.userID, "listing_id", res.ListingID, "matches", len(res.Matches))

	out.reply(fmt.Sprintf(msgs.Published, res.ListingID))
	out.reply(e.matchesText(st.flow, res.Matches))
	e.mainMenu(out, msgs.WhatNext)
	return nil
}

func (e *Engine) matchesText(flow models.Flow, matches []models.MatchCandidate) string {
	msgs := &e.catalog.Messages
	if len(matches) == 0 {
		return msgs.NoMatches
	}

	lines := []string{e.catalog.Flow(flow).MatchesHeading + ":"}
	for _, m := range matches {
		title := m.Title
		if strings.TrimSpace(title) == "" {
			title = msgs.Untitled
		}
		lines = append(lines, fmt.Sprintf(msgs.MatchLine, int(math.Round(m.Score)), title))
	}
	return strings.Join(lines, "\n")
}
