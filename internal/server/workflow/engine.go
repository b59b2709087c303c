// Package workflow is the conversational state machine that walks a user
// through reporting a lost or found item.
//
// Engine.Handle is the single entry point. It loads the user's session,
// dispatches on the persisted step, persists the next state and only then
// returns the replies, so a reply never describes a state that was not
// stored.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/catalog"
	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/services"
)

// SessionStore persists one session per user with optimistic versioning.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, userID string) error
}

// SecretSealer encrypts verification secrets before they enter a payload.
type SecretSealer interface {
	Encrypt(ctx context.Context, values []string) ([]cryptox.Record, error)
}

// Publisher turns a confirmed draft into a listing. On success it has also
// removed the user's session.
type Publisher interface {
	Publish(ctx context.Context, userID string, flow models.Flow, d *models.Draft) (*services.PublishResult, error)
}

// Options configure presentation details of the engine.
type Options struct {
	// FrontURL is the map front-end. An https URL becomes a link button,
	// anything else is sent as plain text.
	FrontURL string
}

// Engine runs the reporting workflow.
type Engine struct {
	store     SessionStore
	sealer    SecretSealer
	publisher Publisher
	catalog   *catalog.Catalog
	clock     common.Clock
	opts      Options
	logger    logging.Logger
	locks     *userLocks
}

func NewEngine(
	store SessionStore,
	sealer SecretSealer,
	publisher Publisher,
	cat *catalog.Catalog,
	clock common.Clock,
	opts Options,
	logger logging.Logger,
) *Engine {
	return &Engine{
		store:     store,
		sealer:    sealer,
		publisher: publisher,
		catalog:   cat,
		clock:     clock,
		opts:      opts,
		logger:    logger,
		locks:     newUserLocks(),
	}
}

// state is the session of the user handled by the current event.
type state struct {
	userID  string
	step    Step
	flow    models.Flow
	stage   Stage
	known   bool
	payload Payload
	version int64
}

func (s *state) idle() bool { return s.step == StepIdle }

// Handle processes one event. It never returns an error: failures become a
// user-facing reply or notification and are logged.
func (e *Engine) Handle(ctx context.Context, ev Event) (resp Response) {
	msgs := &e.catalog.Messages
	log := e.logger.With("user_id", ev.UserID, "kind", string(ev.Kind))

	defer func() {
		if p := recover(); p != nil {
			log.Error(ctx, "workflow panic", "panic", p, "stack", string(debug.Stack()))
			resp = e.failure(ev, msgs.GenericError, msgs.RetryLater)
		}
	}()

	if strings.TrimSpace(ev.UserID) == "" {
		log.Warn(ctx, "event without user")
		return e.failure(ev, msgs.GenericError, msgs.RetryLater)
	}

	release, err := e.locks.Acquire(ctx, ev.UserID)
	if err != nil {
		log.Warn(ctx, "user lock not acquired", "error", err)
		return e.failure(ev, msgs.RetryLater, msgs.RetryLater)
	}
	defer release()

	out := &Response{}
	switch ev.Kind {
	case EventCallback:
		err = e.onCallback(ctx, ev, out)
	case EventCancel:
		err = e.cancel(ctx, ev.UserID, out)
	default:
		err = e.onMessage(ctx, ev, out)
	}

	switch {
	case err == nil:
		return *out
	case errors.Is(err, common.ErrVersionConflict):
		log.Warn(ctx, "session changed concurrently")
		return e.failure(ev, msgs.Conflict, msgs.Conflict)
	default:
		log.Error(ctx, "event handling failed", "error", err)
		return e.failure(ev, msgs.GenericError, msgs.RetryLater)
	}
}

// failure drops any partial output: nothing was persisted that it could
// describe.
func (e *Engine) failure(ev Event, reply, notification string) Response {
	if ev.Kind == EventCallback {
		return Response{Notification: notification}
	}
	return Response{Replies: []Reply{{Text: reply}}}
}

func (e *Engine) onMessage(ctx context.Context, ev Event, out *Response) error {
	msgs := &e.catalog.Messages
	text := strings.TrimSpace(ev.Text)
	lower := strings.ToLower(text)

	if lower == "/start" {
		e.mainMenu(out, msgs.MainMenu)
		return nil
	}
	if e.catalog.IsCancel(lower) {
		return e.cancel(ctx, ev.UserID, out)
	}

	st, err := e.load(ctx, ev.UserID)
	if err != nil {
		return err
	}

	if st.idle() {
		if flow, ok := e.catalog.MatchFlowKeyword(lower); ok {
			return e.startFlow(ctx, st, flow, out)
		}
		if text == "" && ev.Coordinate == nil && len(ev.Photos) == 0 {
			e.mainMenu(out, msgs.MainMenu)
			return nil
		}
		e.mainMenu(out, msgs.IdleHelp)
		return nil
	}

	if !st.known {
		out.reply(msgs.NoText)
		return nil
	}

	in := input{text: text, lower: lower, coordinate: ev.Coordinate, photos: ev.Photos}
	switch st.stage {
	case StageCategory:
		out.reply(msgs.UseCategoryButtons)
		return nil
	case StageAttributes:
		return e.onAttributes(ctx, st, in, out)
	case StagePhoto:
		return e.onPhoto(ctx, st, in, out)
	case StageLocation:
		return e.onLocation(ctx, st, in, out)
	case StageSecrets:
		return e.onSecrets(ctx, st, in, out)
	case StageConfirm:
		out.reply(msgs.NoText)
		return nil
	default:
		out.reply(msgs.NoText)
		return nil
	}
}

func (e *Engine) onCallback(ctx context.Context, ev Event, out *Response) error {
	msgs := &e.catalog.Messages

	cb, ok := ParseCallback(ev.Callback)
	if !ok {
		out.notify(msgs.UnknownAction)
		return nil
	}

	st, err := e.load(ctx, ev.UserID)
	if err != nil {
		return err
	}

	switch cb.Action {
	case ActionStart:
		out.notify(fmt.Sprintf(msgs.ScenarioSelected, e.catalog.Flow(cb.Flow).Label))
		return e.startFlow(ctx, st, cb.Flow, out)
	case ActionMenu:
		if err := e.store.Delete(ctx, ev.UserID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		out.notify(msgs.MenuSelected)
		e.mainMenu(out, msgs.MainMenu)
		return nil
	case ActionCancel:
		if err := e.store.Delete(ctx, ev.UserID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		out.notify(msgs.CancelSelected)
		e.mainMenu(out, msgs.CancelReply)
		return nil
	}

	if st.idle() {
		out.notify(msgs.ChooseScenario)
		e.mainMenu(out, msgs.MainMenu)
		return nil
	}
	if !st.known {
		out.notify(msgs.NoButtons)
		return nil
	}
	if st.flow != cb.Flow {
		out.notify(msgs.OtherScenario)
		return nil
	}

	switch st.stage {
	case StageCategory:
		return e.onCategoryCallback(ctx, st, cb, out)
	case StageConfirm:
		return e.onConfirmCallback(ctx, st, cb, out)
	case StageAttributes, StagePhoto, StageLocation, StageSecrets:
		out.notify(msgs.NoButtons)
		return nil
	default:
		out.notify(msgs.NoButtons)
		return nil
	}
}

func (e *Engine) cancel(ctx context.Context, userID string, out *Response) error {
	if err := e.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	e.mainMenu(out, e.catalog.Messages.Stopped)
	return nil
}

// load returns the user's state. A missing session is idle. An unreadable
// payload restarts the data of the stored step's flow.
func (e *Engine) load(ctx context.Context, userID string) (*state, error) {
	st := &state{userID: userID, step: StepIdle}

	s, err := e.store.Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	st.step = Step(s.Step)
	st.version = s.Version
	if st.step == StepIdle {
		return st, nil
	}

	st.flow, st.stage, st.known = ParseStep(st.step)
	if !st.known {
		e.logger.Warn(ctx, "session has unknown step", "user_id", userID, "step", s.Step)
		return st, nil
	}

	if err := json.Unmarshal(s.Payload, &st.payload); err != nil || st.payload.Flow != st.flow {
		e.logger.Warn(ctx, "session payload unreadable, starting over", "user_id", userID, "step", s.Step)
		st.payload = newPayload(st.flow, e.clock.Now())
	}
	if st.payload.Listing.Attributes == nil {
		st.payload.Listing = st.payload.Listing.Clone()
	}
	return st, nil
}

// save stores step and payload at the state's version and advances st.
func (e *Engine) save(ctx context.Context, st *state, step Step, p Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	s := &models.Session{UserID: st.userID, Step: string(step), Payload: raw, Version: st.version}
	if err := e.store.Save(ctx, s); err != nil {
		return err
	}

	st.step = step
	st.flow, st.stage, st.known = ParseStep(step)
	st.payload = p
	st.version = s.Version
	return nil
}

func (e *Engine) startFlow(ctx context.Context, st *state, flow models.Flow, out *Response) error {
	fc := e.catalog.Flow(flow)
	p := newPayload(flow, e.clock.Now())
	if err := e.transition(ctx, st, StepFor(flow, StageCategory), p, out); err != nil {
		return err
	}
	out.Replies = append([]Reply{{Text: fmt.Sprintf(e.catalog.Messages.FlowIntro, fc.Emoji, fc.Label)}}, out.Replies...)
	return nil
}

// transition persists the next step and renders its prompt. Entering the
// attributes stage selects the next unanswered field, or moves on to the
// photo stage when there is none.
func (e *Engine) transition(ctx context.Context, st *state, step Step, p Payload, out *Response) error {
	flow, stage, ok := ParseStep(step)
	if !ok {
		return fmt.Errorf("transition to unknown step %q", step)
	}

	if stage == StageAttributes {
		f, found := e.catalog.NextUnanswered(p.Listing)
		if !found {
			step = StepFor(flow, StagePhoto)
			p = p.withCurrentKey("")
		} else {
			p = p.withCurrentKey(f.Key)
		}
	}

	if err := e.save(ctx, st, step, p); err != nil {
		return err
	}
	e.logger.Debug(ctx, "session advanced", "user_id", st.userID, "step", string(step), "version", st.version)

	e.prompt(st, out)
	return nil
}
