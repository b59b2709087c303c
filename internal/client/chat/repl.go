package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"
)

// LineReader yields one input line at a time. io.EOF ends the session.
type LineReader interface {
	ReadLine() (string, error)
}

const helpText = `Plain lines are sent as messages.
  :b <n>                press button n of the last keyboard
  :btn <payload>        send a raw callback payload
  :loc <lat> <lng> [note]  send a location
  :photo <id> [url]     attach a photo (without url the id is a transport token)
  :cancel               cancel the current scenario
  :help                 this text
  :quit                 leave`

var errQuit = errors.New("quit")

// REPL is one interactive chat session.
type REPL struct {
	sender  Sender
	userID  string
	out     io.Writer
	buttons []workflow.Button
}

func NewREPL(sender Sender, userID string, out io.Writer) *REPL {
	return &REPL{sender: sender, userID: userID, out: out}
}

// Run reads lines until EOF, :quit or ctx cancellation. Transport errors are
// printed and the loop continues.
func (r *REPL) Run(ctx context.Context, in LineReader) error {
	fmt.Fprintln(r.out, "lost&found chat, type :help for commands")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		ev, err := r.parse(strings.TrimSpace(line))
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintln(r.out, "!", err)
			continue
		case ev == nil:
			continue
		}

		resp, err := r.sender.Send(ctx, *ev)
		if err != nil {
			fmt.Fprintln(r.out, "! send failed:", err)
			continue
		}
		r.render(resp)
	}
}

// parse maps an input line to an event. A nil event with a nil error means
// the line was handled locally.
func (r *REPL) parse(line string) (*workflow.Event, error) {
	if line == "" {
		return nil, nil
	}

	ev := &workflow.Event{Kind: workflow.EventText, UserID: r.userID}
	if !strings.HasPrefix(line, ":") {
		ev.Text = line
		return ev, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return nil, errQuit
	case ":help":
		fmt.Fprintln(r.out, helpText)
		return nil, nil
	case ":cancel":
		ev.Kind = workflow.EventCancel
		return ev, nil
	case ":b":
		if len(fields) != 2 {
			return nil, errors.New("usage: :b <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(r.buttons) {
			return nil, fmt.Errorf("no button %q", fields[1])
		}
		b := r.buttons[n-1]
		if b.Callback == "" {
			fmt.Fprintln(r.out, "open", b.URL)
			return nil, nil
		}
		ev.Kind = workflow.EventCallback
		ev.Callback = b.Callback
		return ev, nil
	case ":btn":
		if len(fields) != 2 {
			return nil, errors.New("usage: :btn <payload>")
		}
		ev.Kind = workflow.EventCallback
		ev.Callback = fields[1]
		return ev, nil
	case ":loc":
		if len(fields) < 3 {
			return nil, errors.New("usage: :loc <lat> <lng> [note]")
		}
		lat, err1 := strconv.ParseFloat(fields[1], 64)
		lng, err2 := strconv.ParseFloat(fields[2], 64)
		if err := errors.Join(err1, err2); err != nil {
			return nil, fmt.Errorf("bad coordinate: %w", err)
		}
		ev.Coordinate = &models.Point{Lat: lat, Lng: lng}
		ev.Text = strings.Join(fields[3:], " ")
		return ev, nil
	case ":photo":
		if len(fields) < 2 || len(fields) > 3 {
			return nil, errors.New("usage: :photo <id> [url]")
		}
		p := models.Photo{ID: fields[1], Token: fields[1]}
		if len(fields) == 3 {
			p.Token = ""
			p.URL = fields[2]
		}
		ev.Photos = []models.Photo{p}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown command %s, try :help", fields[0])
	}
}

// render prints replies and numbers the buttons of the last keyboard.
func (r *REPL) render(resp workflow.Response) {
	if resp.Notification != "" {
		fmt.Fprintf(r.out, "(%s)\n", resp.Notification)
	}

	for _, rep := range resp.Replies {
		fmt.Fprintln(r.out, rep.Text)
		if len(rep.Keyboard) == 0 {
			continue
		}

		r.buttons = r.buttons[:0]
		for _, row := range rep.Keyboard {
			cells := make([]string, 0, len(row))
			for _, b := range row {
				r.buttons = append(r.buttons, b)
				cell := fmt.Sprintf("[%d] %s", len(r.buttons), b.Label)
				if b.URL != "" {
					cell += " -> " + b.URL
				}
				cells = append(cells, cell)
			}
			fmt.Fprintln(r.out, "  "+strings.Join(cells, "   "))
		}
	}
	fmt.Fprintln(r.out)
}
