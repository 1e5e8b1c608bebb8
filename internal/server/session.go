package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/workhub/internal/auth"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/stats"
	"go.uber.org/zap"
)

// Close reasons sent with a policy violation when a handshake is refused.
const (
	reasonNoToken            = "no token provided"
	reasonTokenExpired       = "token expired"
	reasonInvalidToken       = "invalid token"
	reasonNoSubject          = "invalid token: no email"
	reasonUserNotFound       = "user not found"
	reasonVerificationFailed = "token verification failed"
	reasonOrderNotFound      = "order not found"
	reasonInternalError      = "internal error"
	reasonNoAccess           = "no access to this order"
)

type sessionState int

const (
	stateAccepted sessionState = iota
	stateAuthenticating
	stateAuthorizing
	stateJoined
	stateMessageLoop
	stateClosed
	stateError
)

func (s sessionState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateAuthenticating:
		return "authenticating"
	case stateAuthorizing:
		return "authorizing"
	case stateJoined:
		return "joined"
	case stateMessageLoop:
		return "message_loop"
	case stateClosed:
		return "closed"
	case stateError:
		return "error"
	default:
		return "unknown"
	}
}

type Session struct {
	cs      *ChatServer
	conn    *websocket.Conn
	client  *Client
	log     *zap.Logger
	token   string
	orderId int
	userId  int
	connId  ConnId
	room    string
	joined  bool
	state   sessionState

	lastActivity time.Time
}

func newSession(cs *ChatServer, conn *websocket.Conn, token string, orderId int, l *zap.Logger) *Session {
	return &Session{
		cs:           cs,
		conn:         conn,
		log:          l,
		token:        token,
		orderId:      orderId,
		state:        stateAccepted,
		lastActivity: time.Now(),
	}
}

func (s *Session) setState(state sessionState) {
	s.log.Debug("session state change", zap.Stringer("from", s.state), zap.Stringer("to", state))
	s.state = state
}

func (s *Session) run(ctx context.Context) {
	defer s.teardown()

	s.setState(stateAuthenticating)
	if s.token == "" {
		s.fail(reasonNoToken, nil)
		return
	}

	userId, err := s.cs.auth.VerifyToken(s.token)
	if err != nil {
		s.fail(authFailureReason(err), err)
		return
	}
	s.userId = userId
	s.log = s.log.With(zap.Int("user_id", userId))

	s.setState(stateAuthorizing)
	order, err := s.cs.db.GetOrderById(s.orderId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.fail(reasonOrderNotFound, nil)
		} else {
			s.fail(reasonInternalError, err)
		}
		return
	}

	if !order.HasParticipant(userId) {
		s.fail(reasonNoAccess, nil)
		return
	}

	s.join()

	s.setState(stateMessageLoop)
	s.loop(ctx)
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return reasonTokenExpired
	case errors.Is(err, auth.ErrInvalidToken):
		return reasonInvalidToken
	case errors.Is(err, auth.ErrNoSubject):
		return reasonNoSubject
	case errors.Is(err, auth.ErrUserNotFound):
		return reasonUserNotFound
	default:
		return reasonVerificationFailed
	}
}

// fail refuses the handshake. Nothing has been written to the peer yet, so
// the close frame is the only thing it sees.
func (s *Session) fail(reason string, err error) {
	fields := []zap.Field{zap.String("reason", reason), zap.Stringer("state", s.state)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.log.Info("rejecting chat session", fields...)

	s.setState(stateError)
	s.cs.stats.Incr(stats.NumRejectedSessions)
	if err := reject(s.conn, reason); err != nil {
		s.log.Debug("write close frame", zap.Error(err))
	}
}

func (s *Session) join() {
	s.connId = NewConnId(s.userId, s.orderId)
	s.room = RoomLabel(s.orderId)
	s.log = s.log.With(zap.String("conn_id", string(s.connId)))

	s.client = NewClient(s.conn, s.log)
	s.client.Start()

	s.cs.registry.Connect(s.connId, s.room, s.client)
	s.joined = true
	s.cs.stats.Incr(stats.NumActiveSessions)
	s.setState(stateJoined)
	s.log.Info("joined chat", zap.String("room", s.room))

	s.send(ConnectionEstablished(s.userId, s.orderId))
	s.replayHistory()
}

func (s *Session) replayHistory() {
	history, err := s.cs.db.GetRecentChatMessages(s.orderId, s.cs.historyLimit)
	if err != nil {
		s.log.Error("load chat history", zap.Error(err))
		return
	}

	// stored newest first
	slices.Reverse(history)
	for _, msg := range history {
		if !s.send(NewChatMessage(msg, s.userId)) {
			return
		}
	}
}

func (s *Session) loop(ctx context.Context) {
	idle := time.NewTimer(s.cs.idleTimeout)
	defer idle.Stop()

	frames := s.client.Frames()
	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				return
			}
			s.lastActivity = time.Now()
			s.handleFrame(raw)
			idle.Reset(s.cs.idleTimeout)
		case <-idle.C:
			s.log.Debug("session idle, sending ping", zap.Time("last_activity", s.lastActivity))
			if !s.send(PingMessage()) {
				return
			}
			idle.Reset(s.cs.idleTimeout)
		case <-s.client.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleFrame(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Debug("invalid frame", zap.Error(err))
		s.send(ErrorMessage(errInvalidFormat))
		return
	}

	switch msg.Type {
	case TypeMessage:
		s.handleChatMessage(&msg)
	case TypePing:
		s.send(PongMessage())
	case TypePong:
		// reply to an idle ping; receiving it already counted as activity
	case TypeJoin:
		s.send(JoinConfirmed(s.userId, s.orderId))
	default:
		s.send(ErrorMessage(errUnknownMessageType))
	}
}

func (s *Session) handleChatMessage(msg *ClientMessage) {
	body := strings.TrimSpace(msg.Message)
	if body == "" {
		s.send(ErrorMessage(errEmptyMessage))
		return
	}

	messageType := msg.MessageType
	if messageType == "" {
		messageType = database.DefaultMessageType
	}

	saved, err := s.cs.db.CreateChatMessage(database.CreateChatMessageParams{
		OrderId:     s.orderId,
		SenderId:    s.userId,
		Message:     body,
		MessageType: messageType,
	})
	if err != nil {
		s.log.Error("save chat message", zap.Error(err))
		s.send(ErrorMessage(errSaveFailed))
		return
	}
	s.cs.stats.Incr(stats.NumChatMessages)

	n := s.cs.registry.BroadcastToRoom(s.room, NewBroadcastMessage(saved), s.connId)
	s.log.Debug("chat message broadcast", zap.Int("message_id", saved.Id), zap.Int("recipients", n))

	s.send(MessageSent(saved))
}

// send queues msg on the session's own connection and reports whether it
// was accepted.
func (s *Session) send(msg *ServerMessage) bool {
	if err := s.client.Deliver(msg); err != nil {
		s.log.Warn("failed to queue message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}

	return true
}

func (s *Session) teardown() {
	if s.cs.registry.DisconnectPeer(s.connId, s.room, s.client) {
		s.log.Info("left chat", zap.String("room", s.room))
	}

	if s.client != nil {
		s.client.Close()
		<-s.client.Done()
	}

	if s.joined {
		s.cs.stats.Decr(stats.NumActiveSessions)
	}

	if s.state != stateError {
		s.setState(stateClosed)
	}
}
