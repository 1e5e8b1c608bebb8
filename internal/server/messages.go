package server

import (
	"time"

	"github.com/npezzotti/workhub/internal/database"
)

// Inbound frame types.
const (
	TypeMessage = "message"
	TypePing    = "ping"
	TypeJoin    = "join"
)

// Outbound frame types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeNewMessage            = "new_message"
	TypeMessageSent           = "message_sent"
	TypePong                  = "pong"
	TypeJoinConfirmed         = "join_confirmed"
	TypeError                 = "error"
)

const (
	errEmptyMessage       = "empty message"
	errSaveFailed         = "failed to save message"
	errInvalidFormat      = "invalid message format"
	errUnknownMessageType = "unknown message type"
)

type ClientMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message,omitempty"`
	MessageType string `json:"message_type,omitempty"`
}

type ServerMessage struct {
	Type        string     `json:"type"`
	Id          int        `json:"id,omitempty"`
	UserId      int        `json:"user_id,omitempty"`
	OrderId     int        `json:"order_id,omitempty"`
	SenderId    int        `json:"sender_id,omitempty"`
	Message     string     `json:"message,omitempty"`
	MessageType string     `json:"message_type,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	IsOwn       *bool      `json:"is_own,omitempty"`
}

func ConnectionEstablished(userId, orderId int) *ServerMessage {
	return &ServerMessage{
		Type:    TypeConnectionEstablished,
		UserId:  userId,
		OrderId: orderId,
		Message: "connected to order chat",
	}
}

// NewChatMessage renders a stored chat message for viewerId.
func NewChatMessage(msg database.ChatMessage, viewerId int) *ServerMessage {
	createdAt := msg.CreatedAt.UTC()
	isOwn := msg.SenderId == viewerId

	return &ServerMessage{
		Type:        TypeNewMessage,
		Id:          msg.Id,
		SenderId:    msg.SenderId,
		Message:     msg.Message,
		MessageType: msg.MessageType,
		CreatedAt:   &createdAt,
		IsOwn:       &isOwn,
	}
}

// NewBroadcastMessage renders a chat message for every recipient other than
// its sender.
func NewBroadcastMessage(msg database.ChatMessage) *ServerMessage {
	m := NewChatMessage(msg, msg.SenderId)
	isOwn := false
	m.IsOwn = &isOwn

	return m
}

func MessageSent(msg database.ChatMessage) *ServerMessage {
	createdAt := msg.CreatedAt.UTC()

	return &ServerMessage{
		Type:      TypeMessageSent,
		Id:        msg.Id,
		CreatedAt: &createdAt,
	}
}

func PingMessage() *ServerMessage {
	return &ServerMessage{Type: TypePing}
}

func PongMessage() *ServerMessage {
	return &ServerMessage{Type: TypePong}
}

func JoinConfirmed(userId, orderId int) *ServerMessage {
	return &ServerMessage{
		Type:    TypeJoinConfirmed,
		UserId:  userId,
		OrderId: orderId,
	}
}

func ErrorMessage(text string) *ServerMessage {
	return &ServerMessage{
		Type:    TypeError,
		Message: text,
	}
}
