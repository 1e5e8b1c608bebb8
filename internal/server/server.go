package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/stats"
	"github.com/teris-io/shortid"
	"go.uber.org/zap"
)

const (
	defaultIdleTimeout  = 300 * time.Second
	defaultHistoryLimit = 20
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (int, error)
}

// ChatStore is the persistence a chat session needs.
type ChatStore interface {
	GetOrderById(orderId int) (database.Order, error)
	CreateChatMessage(params database.CreateChatMessageParams) (database.ChatMessage, error)
	GetRecentChatMessages(orderId, limit int) ([]database.ChatMessage, error)
}

type Options struct {
	// IdleTimeout is how long a joined session may go without an inbound
	// frame before it is sent a ping.
	IdleTimeout  time.Duration
	HistoryLimit int
}

type ChatServer struct {
	log          *zap.Logger
	db           ChatStore
	auth         TokenVerifier
	stats        stats.StatsProvider
	registry     *Registry
	sid          *shortid.Shortid
	idleTimeout  time.Duration
	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewChatServer(logger *zap.Logger, db ChatStore, verifier TokenVerifier, su stats.StatsProvider, opts Options) (*ChatServer, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, fmt.Errorf("session id generator: %w", err)
	}

	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ChatServer{
		log:          logger,
		db:           db,
		auth:         verifier,
		stats:        su,
		registry:     NewRegistry(logger.Named("registry")),
		sid:          sid,
		idleTimeout:  opts.IdleTimeout,
		historyLimit: opts.HistoryLimit,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

func (cs *ChatServer) Registry() *Registry {
	return cs.registry
}

// ServeSession runs the chat protocol on conn until the session ends.
func (cs *ChatServer) ServeSession(conn *websocket.Conn, token string, orderId int) {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		return
	}
	cs.wg.Add(1)
	cs.mu.Unlock()
	defer cs.wg.Done()

	sessionId, err := cs.sid.Generate()
	if err != nil {
		cs.log.Warn("generate session id", zap.Error(err))
	}

	s := newSession(cs, conn, token, orderId, cs.log.With(
		zap.String("session_id", sessionId),
		zap.Int("order_id", orderId),
	))
	s.run(cs.ctx)
}

// PublishChatMessage fans a stored message out to the order's room, skipping
// the sender's own session. It returns the number of deliveries.
func (cs *ChatServer) PublishChatMessage(msg database.ChatMessage) int {
	return cs.registry.BroadcastToRoom(
		RoomLabel(msg.OrderId),
		NewBroadcastMessage(msg),
		NewConnId(msg.SenderId, msg.OrderId),
	)
}

// SendToUser delivers msg to userId's session in orderId's chat, if any.
func (cs *ChatServer) SendToUser(userId, orderId int, msg *ServerMessage) DeliveryStatus {
	return cs.registry.SendToOne(NewConnId(userId, orderId), msg)
}

// Shutdown closes every session and waits for them to finish.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Info("shutting down chat server", zap.Int("sessions", cs.registry.Len()))

	cs.mu.Lock()
	cs.closed = true
	cs.mu.Unlock()

	cs.cancel()
	cs.registry.CloseAll()

	done := make(chan struct{})
	go func() {
		cs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cs.log.Info("chat server shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("chat server shutdown: %w", ctx.Err())
	}
}
