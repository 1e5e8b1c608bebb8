package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
	"go.uber.org/zap"
)

type PostMessageRequest struct {
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
}

func (s *WorkhubApp) orderMessages(w http.ResponseWriter, r *http.Request) {
	order, userId, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if !order.HasParticipant(userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	messages, err := s.db.ListChatMessages(order.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	res := make([]types.ChatMessage, 0, len(messages))
	for _, m := range messages {
		res = append(res, toChatMessage(m, userId))
	}

	s.writeJson(w, http.StatusOK, res)
}

// postOrderMessage stores a chat message sent over HTTP and pushes it to the
// order's live chat sessions.
func (s *WorkhubApp) postOrderMessage(w http.ResponseWriter, r *http.Request) {
	order, userId, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if !order.HasParticipant(userId) {
		s.writeError(w, NewApiError(http.StatusForbidden, "not authorized to send messages"))
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		s.writeError(w, NewApiError(http.StatusBadRequest, "message cannot be empty"))
		return
	}

	if req.MessageType == "" {
		req.MessageType = database.DefaultMessageType
	}

	msg, err := s.db.CreateChatMessage(database.CreateChatMessageParams{
		OrderId:     order.Id,
		SenderId:    userId,
		Message:     body,
		MessageType: req.MessageType,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if other, ok := order.Counterpart(userId); ok {
		s.notify(other,
			"New message",
			fmt.Sprintf("New message in order %q", order.Title),
			notifyNewMessage,
			order.Id,
		)
	}

	if s.cs != nil {
		n := s.cs.PublishChatMessage(msg)
		s.log.Debug("chat message published", zap.Int("order_id", order.Id), zap.Int("recipients", n))
	}

	s.writeJson(w, http.StatusCreated, toChatMessage(msg, userId))
}
