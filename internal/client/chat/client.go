// Package chat is the terminal front-end of lfctl: it turns typed lines into
// workflow events, posts them to the server webhook and prints the replies.
package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/netx"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"
)

const eventsPath = "/api/v1/events"

// Sender delivers one event and returns the server's response.
type Sender interface {
	Send(ctx context.Context, ev workflow.Event) (workflow.Response, error)
}

// HTTPSender posts events to the server webhook.
type HTTPSender struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPSender(serverURL, token string) *HTTPSender {
	return &HTTPSender{
		endpoint: strings.TrimRight(serverURL, "/") + eventsPath,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSender) Send(ctx context.Context, ev workflow.Event) (workflow.Response, error) {
	var resp workflow.Response
	err := netx.PostJSON(ctx, s.client, s.endpoint, s.token, ev, &resp)
	return resp, err
}
