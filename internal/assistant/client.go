package assistant

import (
	"context"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"github.com/talkincode/warelay/config"
)

// Client calls the external assistant endpoint that produces reply text.
// The endpoint is a plain POST contract: {chat_id, message} in, {reply} out.
type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(cfg config.AssistantConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: cfg.Url, timeout: timeout}
}

// Enabled reports whether an assistant endpoint is configured. Without one
// the relay only logs inbound messages.
func (c *Client) Enabled() bool {
	return c.url != ""
}

// Reply asks the assistant for a response to an inbound message. Failures are
// returned to the caller to log and drop; there is no internal retry.
func (c *Client) Reply(ctx context.Context, chatID string, message string) (string, error) {
	var resp struct {
		Reply string `json:"reply"`
		Error string `json:"error"`
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var code int
	err := gout.POST(c.url).
		WithContext(ctx).
		SetJSON(gout.H{"chat_id": chatID, "message": message}).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "assistant request")
	}
	if code >= 300 {
		return "", errors.Errorf("assistant returned status %d: %s", code, resp.Error)
	}
	return resp.Reply, nil
}
