package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/workhub/internal/auth"
	"github.com/npezzotti/workhub/internal/config"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/server"
	"github.com/npezzotti/workhub/internal/stats"
	"github.com/npezzotti/workhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newChatApp(t *testing.T, db *database.MockRepository, allowedOrigins []string) (*WorkhubApp, *httptest.Server) {
	t.Helper()

	logger := testutil.TestLogger(t)
	verifier := auth.NewAuthenticator(testSigningKey, db)

	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()

	cs, err := server.NewChatServer(logger, db, verifier, su, server.Options{})
	require.NoError(t, err)

	app := NewWorkhubApp(http.NewServeMux(), logger, cs, db, verifier, &config.Config{
		ServerAddr:     "localhost:8080",
		SigningKey:     testSigningKey,
		TokenTTL:       time.Minute,
		AllowedOrigins: allowedOrigins,
	})

	srv := httptest.NewServer(app.mux.Handler)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx))
		srv.Close()
	})

	return app, srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func Test_serveWs_InvalidOrderId(t *testing.T) {
	_, srv := newChatApp(t, &database.MockRepository{}, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/abc"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_serveWs_OriginNotAllowed(t *testing.T) {
	_, srv := newChatApp(t, &database.MockRepository{}, []string{"http://allowed.example.com"})

	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/42"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func Test_serveWs_HttpMessageReachesLiveSession(t *testing.T) {
	order := testOrder(database.OrderStatusInProgress, true)
	stored := database.ChatMessage{
		Id:          11,
		OrderId:     order.Id,
		SenderId:    testClientId,
		SenderName:  testClient.FullName,
		Message:     "are you there?",
		MessageType: database.DefaultMessageType,
		CreatedAt:   time.Now(),
	}

	db := &database.MockRepository{}
	db.On("GetUserByEmail", testClient.EmailAddress).Return(testClient, nil)
	db.On("GetUserByEmail", testFreelancer.EmailAddress).Return(testFreelancer, nil)
	db.On("GetOrderById", order.Id).Return(order, nil)
	db.On("GetRecentChatMessages", order.Id, mock.Anything).Return([]database.ChatMessage{}, nil)
	db.On("CreateChatMessage", mock.Anything).Return(stored, nil).Once()
	expectNotification(db, testFreelancerId, notifyNewMessage).Once()

	app, srv := newChatApp(t, db, nil)

	freelancerToken, err := app.issuer.Issue(testFreelancer.EmailAddress, time.Minute)
	require.NoError(t, err)
	clientToken, err := app.issuer.Issue(testClient.EmailAddress, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/42?token="+freelancerToken), nil)
	require.NoError(t, err, "failed to dial chat endpoint")
	defer conn.Close()

	var established server.ServerMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&established))
	require.Equal(t, server.TypeConnectionEstablished, established.Type)
	assert.Equal(t, testFreelancerId, established.UserId)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/orders/42/messages", jsonBody(t, PostMessageRequest{Message: "are you there?"}))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pushed server.ServerMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, server.TypeNewMessage, pushed.Type)
	assert.Equal(t, 11, pushed.Id)
	assert.Equal(t, testClientId, pushed.SenderId)
	assert.Equal(t, "are you there?", pushed.Message)
	require.NotNil(t, pushed.IsOwn)
	assert.False(t, *pushed.IsOwn)
}
