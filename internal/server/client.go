package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 256
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendQueueFull    = errors.New("send queue full")
)

// Client owns one websocket connection. Frames read from the connection are
// forwarded on frames; outbound messages are queued on send and written by
// the write pump, which is the connection's only writer.
type Client struct {
	conn      *websocket.Conn
	log       *zap.Logger
	send      chan *ServerMessage
	frames    chan []byte
	stop      chan struct{}
	readDone  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, l *zap.Logger) *Client {
	return &Client{
		conn:     conn,
		log:      l,
		send:     make(chan *ServerMessage, sendQueueSize),
		frames:   make(chan []byte),
		stop:     make(chan struct{}),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.Write()
	go c.Read()
}

// Deliver queues msg without blocking.
func (c *Client) Deliver(msg *ServerMessage) error {
	select {
	case <-c.stop:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close asks the write pump to send a close frame and release the
// connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})

	return nil
}

// Frames returns the channel of inbound data frames. It is closed when the
// read pump exits.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Done is closed once both pumps have exited and the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		<-c.readDone
		c.log.Debug("write pump exiting")
		close(c.done)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Error("failed to serialize message", zap.Error(err))
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				c.Close()
				return
			}
		case <-c.stop:
			c.sendMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		close(c.frames)
		c.log.Debug("read pump exiting")
		close(c.readDone)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn("read message", zap.Error(err))
			}
			return
		}

		select {
		case c.frames <- raw:
		case <-c.stop:
			return
		}
	}
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn("write message", zap.Error(err))
		}
		return false
	}

	return true
}

// reject writes a policy violation close frame directly to the connection.
// It must only be used before the pumps are started.
func reject(conn *websocket.Conn, reason string) error {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()

	return err
}
