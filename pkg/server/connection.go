package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/weframe/weframe-server/internal/protocol"
	"github.com/weframe/weframe-server/pkg/logger"
)

// Connection represents a single client WebSocket connection: one task
// per connection awaiting the inbound stream and the session's
// broadcast subscription.
type Connection struct {
	clientID string
	session  *Session
	conn     *websocket.Conn
	ctx      context.Context
	cancel   context.CancelFunc
	sendMu   sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConnection creates a new client connection handler for an already
// upgraded socket.
func NewConnection(clientID string, session *Session, conn *websocket.Conn, readTimeout, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		clientID:     clientID,
		session:      session,
		conn:         conn,
		ctx:          ctx,
		cancel:       cancel,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Handle manages the WebSocket connection lifecycle: join, fan out
// broadcast messages, and process inbound frames until the stream
// closes, a send fails, or ctx is canceled.
func (c *Connection) Handle(ctx context.Context, name string) error {
	defer c.cleanup()

	logger.Info("connection: client=%s session=%s", c.clientID, c.session.ID())

	snapshot, _, updates := c.session.Join(c.clientID, name)
	if err := c.send(protocol.NewProjectUpdateMsg(snapshot)); err != nil {
		return fmt.Errorf("send initial snapshot: %w", err)
	}

	updatesDone := make(chan struct{})
	go c.forwardUpdates(updates, updatesDone)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return c.ctx.Err()
		default:
		}

		readCtx, readCancel := context.WithTimeout(ctx, c.readTimeout)
		var msg protocol.ClientMsg
		err := wsjson.Read(readCtx, c.conn, &msg)
		readCancel()
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				// wsjson.Read also returns a plain error for a JSON
				// decode/type-mismatch failure on an otherwise healthy
				// socket. Drop the bad frame and keep the connection open
				// rather than tearing it down.
				logger.Error("connection: client=%s malformed frame: %v", c.clientID, err)
				continue
			}
			return fmt.Errorf("read message: %w", err)
		}

		c.handleMessage(&msg)
	}
}

// handleMessage processes one inbound frame; semantic no-ops
// (operations that reference a missing clip or collaborator) are not
// errors here — they commit anyway, since the Document Model's Apply is
// total.
func (c *Connection) handleMessage(msg *protocol.ClientMsg) {
	switch {
	case msg.Operation != nil:
		c.session.Submit(*msg.Operation)
	case msg.Chat != nil:
		c.session.SendChat(c.clientID, msg.Chat.Message)
	case msg.Ping != nil:
		elapsed := c.session.Ping(*msg.Ping)
		if err := c.send(protocol.NewPongMsg(elapsed)); err != nil {
			logger.Error("connection: client=%s pong send failed: %v", c.clientID, err)
		}
	}
}

// forwardUpdates relays the session's broadcast channel to this
// connection's socket until it closes (session killed) or a send fails
// (a fatal transport error).
func (c *Connection) forwardUpdates(updates <-chan *protocol.ServerMsg, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			if err := c.send(msg); err != nil {
				logger.Error("connection: client=%s broadcast send failed: %v", c.clientID, err)
				c.cancel()
				return
			}
		}
	}
}

// send writes msg to the client socket (thread-safe: the read loop and
// the broadcast-forwarding goroutine both call send).
func (c *Connection) send(msg *protocol.ServerMsg) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	writeCtx, writeCancel := context.WithTimeout(c.ctx, c.writeTimeout)
	defer writeCancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// cleanup removes the client from the session roster.
func (c *Connection) cleanup() {
	logger.Info("disconnection: client=%s session=%s", c.clientID, c.session.ID())
	c.session.Leave(c.clientID)
	c.cancel()
}
