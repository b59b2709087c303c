package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	lines []string
}

func (r *sliceReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	l := r.lines[0]
	r.lines = r.lines[1:]
	return l, nil
}

type fakeSender struct {
	sent []workflow.Event
	resp workflow.Response
	err  error
}

func (f *fakeSender) Send(_ context.Context, ev workflow.Event) (workflow.Response, error) {
	f.sent = append(f.sent, ev)
	return f.resp, f.err
}

func TestREPL_TranslatesCommands(t *testing.T) {
	sender := &fakeSender{resp: workflow.Response{
		Replies: []workflow.Reply{{
			Text: "Choose an action:",
			Keyboard: [][]workflow.Button{
				{{Label: "Lost", Callback: "flow:lost:start"}, {Label: "Found", Callback: "flow:found:start"}},
				{{Label: "Map", URL: "https://map"}},
			},
		}},
	}}
	var out bytes.Buffer
	r := NewREPL(sender, "u1", &out)

	in := &sliceReader{lines: []string{
		"/start",
		"",
		":b 2",
		":b 3",
		":b 9",
		":btn flow:lost:menu",
		":loc 55.76 37.62 near the park",
		":loc 55.76 north",
		":photo p1 https://cdn/1.jpg",
		":photo p2",
		":cancel",
		":wat",
		":quit",
		"never sent",
	}}

	require.NoError(t, r.Run(context.Background(), in))

	require.Len(t, sender.sent, 7)
	assert.Equal(t, workflow.Event{Kind: workflow.EventText, UserID: "u1", Text: "/start"}, sender.sent[0])
	assert.Equal(t, workflow.Event{Kind: workflow.EventCallback, UserID: "u1", Callback: "flow:found:start"}, sender.sent[1])
	assert.Equal(t, "flow:lost:menu", sender.sent[2].Callback)
	assert.Equal(t, &models.Point{Lat: 55.76, Lng: 37.62}, sender.sent[3].Coordinate)
	assert.Equal(t, "near the park", sender.sent[3].Text)
	assert.Equal(t, []models.Photo{{ID: "p1", URL: "https://cdn/1.jpg"}}, sender.sent[4].Photos)
	assert.Equal(t, []models.Photo{{ID: "p2", Token: "p2"}}, sender.sent[5].Photos)
	assert.Equal(t, workflow.EventCancel, sender.sent[6].Kind)

	printed := out.String()
	assert.Contains(t, printed, "[1] Lost   [2] Found")
	assert.Contains(t, printed, "[3] Map -> https://map")
	assert.Contains(t, printed, "open https://map")
	assert.Contains(t, printed, `no button "9"`)
	assert.Contains(t, printed, "bad coordinate")
	assert.Contains(t, printed, "unknown command :wat")
}

func TestREPL_SendErrorKeepsGoing(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	var out bytes.Buffer

	err := NewREPL(sender, "u1", &out).Run(context.Background(), &sliceReader{lines: []string{"a", "b"}})

	require.NoError(t, err)
	assert.Len(t, sender.sent, 2)
	assert.Contains(t, out.String(), "! send failed: connection refused")
}

func TestREPL_PrintsNotification(t *testing.T) {
	sender := &fakeSender{resp: workflow.Response{Notification: "Main menu"}}
	var out bytes.Buffer

	require.NoError(t, NewREPL(sender, "u1", &out).Run(context.Background(), &sliceReader{lines: []string{":btn flow:lost:menu"}}))

	assert.Contains(t, out.String(), "(Main menu)")
}

func TestHTTPSender(t *testing.T) {
	var got workflow.Event
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"replies":[{"text":"hi"}]}`)
	}))
	defer ts.Close()

	resp, err := NewHTTPSender(ts.URL+"/", "tok").Send(context.Background(), workflow.Event{Kind: workflow.EventText, UserID: "u1", Text: "x"})

	require.NoError(t, err)
	assert.Equal(t, "x", got.Text)
	require.Len(t, resp.Replies, 1)
	assert.Equal(t, "hi", resp.Replies[0].Text)
}
