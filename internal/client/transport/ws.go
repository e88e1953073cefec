// Package transport dials the server's sync websocket and speaks the frame
// protocol on behalf of the sync engine.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/dmitrijs2005/daybook/internal/syncproto"
)

// DialTimeout bounds the websocket handshake.
const DialTimeout = 10 * time.Second

// Client is one live sync connection.
type Client struct {
	conn   *websocket.Conn
	frames chan syncproto.Frame
}

// Dial connects to the sync endpoint. serverURL is the http(s) base URL of
// the server; the bearer token authenticates the upgrade request.
func Dial(ctx context.Context, serverURL string, token string) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	url := strings.Replace(serverURL, "http", "ws", 1) + "/api/sync"
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial sync endpoint: %w", err)
	}

	c := &Client{
		conn:   conn,
		frames: make(chan syncproto.Frame, 16),
	}
	go c.readLoop(ctx)
	return c, nil
}

// readLoop decodes incoming frames until the connection drops, then closes
// the frames channel so the engine notices.
func (c *Client) readLoop(ctx context.Context) {
	defer close(c.frames)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var frame syncproto.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		select {
		case c.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) send(ctx context.Context, frame *syncproto.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Hello announces the client's watermark; the server answers with the delta
// above it.
func (c *Client) Hello(ctx context.Context, sinceVersion int64) error {
	return c.send(ctx, &syncproto.Frame{Type: syncproto.TypeHello, SinceVersion: sinceVersion})
}

// Push sends a batch of locally edited entries.
func (c *Client) Push(ctx context.Context, entries []syncproto.Entry) error {
	return c.send(ctx, &syncproto.Frame{Type: syncproto.TypePush, Entries: entries})
}

// Pull requests the delta above sinceVersion explicitly.
func (c *Client) Pull(ctx context.Context, sinceVersion int64) error {
	return c.send(ctx, &syncproto.Frame{Type: syncproto.TypePull, SinceVersion: sinceVersion})
}

// Frames delivers update, ack and err frames from the server.
func (c *Client) Frames() <-chan syncproto.Frame { return c.frames }

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
