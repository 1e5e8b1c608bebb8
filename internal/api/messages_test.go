package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_orderMessages(t *testing.T) {
	history := []database.ChatMessage{
		{Id: 1, OrderId: 42, SenderId: testClientId, SenderName: testClient.FullName, Message: "hi", MessageType: "text", CreatedAt: time.Now().Add(-time.Minute)},
		{Id: 2, OrderId: 42, SenderId: testFreelancerId, SenderName: testFreelancer.FullName, Message: "hello", MessageType: "text", CreatedAt: time.Now()},
	}

	t.Run("participant", func(t *testing.T) {
		db := &database.MockRepository{}
		defer db.AssertExpectations(t)
		db.On("GetOrderById", 42).Return(testOrder(database.OrderStatusInProgress, true), nil).Once()
		db.On("ListChatMessages", 42).Return(history, nil).Once()

		app := newTestApp(t, db)
		rr := httptest.NewRecorder()
		req := newAuthedRequest(http.MethodGet, "/api/orders/42/messages", nil, testFreelancerId)
		req.SetPathValue("id", "42")
		app.orderMessages(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		messages := decodeJson[[]types.ChatMessage](t, rr)
		require.Len(t, messages, 2)
		assert.Equal(t, "hi", messages[0].Message, "expected history in ascending order")
		assert.False(t, messages[0].IsOwn)
		assert.True(t, messages[1].IsOwn)
	})

	t.Run("outsider", func(t *testing.T) {
		db := &database.MockRepository{}
		defer db.AssertExpectations(t)
		db.On("GetOrderById", 42).Return(testOrder(database.OrderStatusInProgress, true), nil).Once()

		app := newTestApp(t, db)
		rr := httptest.NewRecorder()
		req := newAuthedRequest(http.MethodGet, "/api/orders/42/messages", nil, testOutsiderId)
		req.SetPathValue("id", "42")
		app.orderMessages(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func Test_postOrderMessage(t *testing.T) {
	t.Run("success without chat server", func(t *testing.T) {
		stored := database.ChatMessage{Id: 3, OrderId: 42, SenderId: testClientId, Message: "ping?", MessageType: "text", CreatedAt: time.Now()}

		db := &database.MockRepository{}
		defer db.AssertExpectations(t)
		db.On("GetOrderById", 42).Return(testOrder(database.OrderStatusInProgress, true), nil).Once()
		db.On("CreateChatMessage", database.CreateChatMessageParams{
			OrderId:     42,
			SenderId:    testClientId,
			Message:     "ping?",
			MessageType: database.DefaultMessageType,
		}).Return(stored, nil).Once()
		expectNotification(db, testFreelancerId, notifyNewMessage).Once()

		app := newTestApp(t, db)
		rr := httptest.NewRecorder()
		req := newAuthedRequest(http.MethodPost, "/api/orders/42/messages", jsonBody(t, PostMessageRequest{Message: "  ping? "}), testClientId)
		req.SetPathValue("id", "42")
		app.postOrderMessage(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		msg := decodeJson[types.ChatMessage](t, rr)
		assert.Equal(t, 3, msg.Id)
		assert.True(t, msg.IsOwn)
	})

	tcases := []struct {
		name        string
		userId      int
		body        any
		statusCode  int
		expectedMsg string
	}{
		{
			name:        "empty message",
			userId:      testClientId,
			body:        PostMessageRequest{Message: "   "},
			statusCode:  http.StatusBadRequest,
			expectedMsg: "message cannot be empty",
		},
		{
			name:        "outsider",
			userId:      testOutsiderId,
			body:        PostMessageRequest{Message: "hi"},
			statusCode:  http.StatusForbidden,
			expectedMsg: "not authorized to send messages",
		},
		{
			name:       "invalid json",
			userId:     testClientId,
			body:       "invalid",
			statusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockRepository{}
			defer db.AssertExpectations(t)
			db.On("GetOrderById", 42).Return(testOrder(database.OrderStatusInProgress, true), nil).Once()

			app := newTestApp(t, db)
			rr := httptest.NewRecorder()
			req := newAuthedRequest(http.MethodPost, "/api/orders/42/messages", jsonBody(t, tc.body), tc.userId)
			req.SetPathValue("id", "42")
			app.postOrderMessage(rr, req)

			assert.Equal(t, tc.statusCode, rr.Code)
			if tc.expectedMsg != "" {
				assert.Equal(t, tc.expectedMsg, decodeApiError(t, rr).Message)
			}
			db.AssertNotCalled(t, "CreateChatMessage", mock.Anything)
		})
	}
}
