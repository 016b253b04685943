package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventDocumentsChanged = "documents_changed"

	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// ChangeEvent is a frame pushed by the server over /api/ws.
type ChangeEvent struct {
	Type string `json:"type"`
	Data struct {
		Kind string  `json:"kind"`
		IDs  []int64 `json:"ids"`
	} `json:"data"`
}

func (c *Client) wsURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/api/ws"
	return u.String()
}

// Watch delivers document change events to onChange until ctx is done.
// Dropped connections are retried with exponential back-off.
func (c *Client) Watch(ctx context.Context, onChange func(ChangeEvent)) {
	backoff := minBackoff
	for {
		connected, err := c.watchOnce(ctx, onChange)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = minBackoff
		}
		if err != nil {
			c.logger.Warn(module, "Change feed disconnected", map[string]interface{}{
				"error":   err.Error(),
				"retry_s": backoff.Seconds(),
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) watchOnce(ctx context.Context, onChange func(ChangeEvent)) (bool, error) {
	dialer := websocket.Dialer{
		Jar:              c.jar,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.logger.Info(module, "Change feed connected", map[string]interface{}{"url": redact(c.wsURL())})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		var ev ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Debug(module, "Ignoring unreadable frame", nil)
			continue
		}
		if ev.Type == EventDocumentsChanged {
			onChange(ev)
		}
	}
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	return u.String()
}
