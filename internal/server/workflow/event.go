package workflow

import (
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// EventKind tells how an inbound event was produced.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
	EventCancel   EventKind = "cancel"
)

// Event is one inbound chat update.
type Event struct {
	Kind       EventKind      `json:"kind"`
	UserID     string         `json:"userId"`
	Text       string         `json:"text,omitempty"`
	Coordinate *models.Point  `json:"coordinate,omitempty"`
	Photos     []models.Photo `json:"photos,omitempty"`
	Callback   string         `json:"callback,omitempty"`
}

// Button is either a callback button or a link button.
type Button struct {
	Label    string `json:"label"`
	Callback string `json:"callback,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Reply is one outbound message.
type Reply struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

// Response is everything produced for one event. Notification is the short
// acknowledgement shown for callbacks.
type Response struct {
	Replies      []Reply `json:"replies"`
	Notification string  `json:"notification,omitempty"`
}

func (r *Response) reply(text string, keyboard ...[]Button) {
	r.Replies = append(r.Replies, Reply{Text: text, Keyboard: keyboard})
}

func (r *Response) notify(text string) {
	r.Notification = text
}

// Callback actions.
const (
	ActionStart    = "start"
	ActionMenu     = "menu"
	ActionCancel   = "cancel"
	ActionCategory = "category"
	ActionConfirm  = "confirm"

	ConfirmPublish = "publish"
	ConfirmEdit    = "edit"
)

// Callback is a parsed "flow:<flow>:<action>[:<value>]" payload.
type Callback struct {
	Flow   models.Flow
	Action string
	Value  string
}

// String encodes the callback payload.
func (c Callback) String() string {
	parts := []string{"flow", string(c.Flow), c.Action}
	if c.Value != "" {
		parts = append(parts, c.Value)
	}
	return strings.Join(parts, ":")
}

// ParseCallback decodes a callback payload. The flow must be known except
// for the menu and cancel actions.
func ParseCallback(raw string) (Callback, bool) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 || parts[0] != "flow" || parts[2] == "" {
		return Callback{}, false
	}

	cb := Callback{Flow: models.Flow(parts[1]), Action: parts[2]}
	if len(parts) == 4 {
		cb.Value = parts[3]
	}

	if !cb.Flow.Valid() && cb.Action != ActionMenu && cb.Action != ActionCancel {
		return Callback{}, false
	}
	return cb, true
}
