package chatbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// pongWait is how long reads may sit idle; the gateway pings well
	// within this window.
	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// ErrNotConnected is returned by Tell before Run has established the
// websocket connection.
var ErrNotConnected = errors.New("chatbox: not connected")

// Client is a chatbox gateway client. It delivers command events to the
// registered handler and sends private messages with Tell.
type Client struct {
	url    string
	logger zerolog.Logger

	// DefaultName is the display name Tell messages are sent under.
	DefaultName string
	// DefaultFormattingMode is the text mode for outgoing messages,
	// e.g. "markdown".
	DefaultFormattingMode string

	handler func(Command)

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
}

// NewClient creates a gateway client for the given endpoint and secret
// token. The token is the final path segment of the websocket URL.
func NewClient(endpoint, token string, logger zerolog.Logger) *Client {
	return &Client{
		url:    endpoint + token,
		logger: logger,
	}
}

// HandleCommand registers the handler invoked for every command event.
// Each event is handled on its own goroutine.
func (c *Client) HandleCommand(fn func(Command)) {
	c.handler = fn
}

// Run connects to the gateway and reads packets until the context is
// cancelled or the connection drops.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing chatbox: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		var pkt packet
		if err := conn.ReadJSON(&pkt); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("chatbox read error")
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		switch pkt.Type {
		case "hello":
			c.logger.Info().Bool("guest", pkt.Guest).Msg("connected to chatbox")
		case "event":
			if pkt.Event != "command" || pkt.User == nil || c.handler == nil {
				continue
			}
			cmd := Command{
				User:      *pkt.User,
				Command:   pkt.Command,
				Args:      pkt.Args,
				OwnerOnly: pkt.OwnerOnly,
			}
			c.logger.Debug().
				Str("user", cmd.User.Name).
				Str("command", cmd.Command).
				Strs("args", cmd.Args).
				Msg("command event")
			go c.handler(cmd)
		case "error":
			c.logger.Warn().Str("error", pkt.Error).Str("message", pkt.Message).Msg("chatbox error packet")
		case "closing":
			c.logger.Info().Str("reason", pkt.Reason).Msg("chatbox closing connection")
			return fmt.Errorf("chatbox closed connection: %s", pkt.Reason)
		}
	}
}

// Tell sends a private message to the named user under the client's default
// display name and formatting mode.
func (c *Client) Tell(username, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	c.nextID++
	pkt := tellPacket{
		Type: "tell",
		ID:   c.nextID,
		User: username,
		Text: text,
		Name: c.DefaultName,
		Mode: c.DefaultFormattingMode,
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(pkt); err != nil {
		return fmt.Errorf("sending tell: %w", err)
	}
	return nil
}
