package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/npezzotti/workhub/internal/config"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

const (
	testClientId     = 1
	testFreelancerId = 2
	testOutsiderId   = 3
)

var (
	testClient = database.User{
		Id:           testClientId,
		EmailAddress: "client@example.com",
		FullName:     "Carol Client",
	}
	testFreelancer = database.User{
		Id:           testFreelancerId,
		EmailAddress: "freelancer@example.com",
		FullName:     "Fred Freelancer",
		IsFreelancer: true,
		Rating:       4.5,
		ReviewCount:  2,
	}
)

func testOrder(status string, assigned bool) database.Order {
	o := database.Order{
		Id:          42,
		Title:       "Landing page",
		Description: "Build a landing page",
		Budget:      500,
		ClientId:    testClientId,
		Status:      status,
		Category:    "web",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if assigned {
		o.FreelancerId = sql.NullInt64{Int64: testFreelancerId, Valid: true}
	}

	return o
}

func newTestApp(t *testing.T, db *database.MockRepository) *WorkhubApp {
	t.Helper()

	return NewWorkhubApp(http.NewServeMux(), testutil.TestLogger(t), nil, db, nil, &config.Config{
		ServerAddr: "localhost:8080",
		SigningKey: testSigningKey,
		TokenTTL:   time.Minute,
	})
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// newAuthedRequest builds a request as seen by a handler behind
// authMiddleware. A zero userId leaves the request unauthenticated.
func newAuthedRequest(method, target string, body io.Reader, userId int) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if userId > 0 {
		req = req.WithContext(WithUserId(req.Context(), userId))
	}

	return req
}

func decodeApiError(t *testing.T, rr *httptest.ResponseRecorder) ApiError {
	t.Helper()

	var apiErr ApiError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr), "failed to decode ApiError response")
	return apiErr
}

func decodeJson[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "failed to decode response: %s", rr.Body.String())
	return v
}

// expectNotification registers a CreateNotification call for userId of the
// given type.
func expectNotification(db *database.MockRepository, userId int, notificationType string) *mock.Call {
	return db.On("CreateNotification", mock.MatchedBy(func(p database.CreateNotificationParams) bool {
		return p.UserId == userId && p.NotificationType == notificationType
	})).Return(database.Notification{}, nil)
}
