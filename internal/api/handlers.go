package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
	"go.uber.org/zap"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	notificationPage = 50
)

func (s *WorkhubApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("json encode", zap.Error(err))
	}
}

func (s *WorkhubApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.Err != nil {
		s.log.Error("request failed", zap.Int("status", errResp.StatusCode), zap.Error(errResp.Err))
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

// lookupError maps a repository read error to a response, treating a
// missing row as 404 with the given message.
func lookupError(err error, notFound string) *ApiError {
	if errors.Is(err, sql.ErrNoRows) {
		return NewApiError(http.StatusNotFound, notFound)
	}

	return NewInternalServerError(err)
}

func pathId(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// pagination reads the page and limit query parameters and returns the
// resulting limit and offset.
func pagination(r *http.Request, defaultLimit, maxLimit int) (int, int, bool) {
	page, limit := 1, defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, false
		}
		limit = n
	}

	return limit, (page - 1) * limit, true
}

// skipLimit reads the skip and limit query parameters.
func skipLimit(r *http.Request, defaultLimit, maxLimit int) (int, int, bool) {
	skip, limit := 0, defaultLimit

	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		skip = n
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, false
		}
		limit = n
	}

	return limit, skip, true
}

// queryFloat reads an optional non-negative number from the query string.
// A missing parameter reads as zero.
func queryFloat(r *http.Request, name string) (float64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

func (s *WorkhubApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// currentUserRecord loads the authenticated user.
func (s *WorkhubApp) currentUserRecord(r *http.Request) (database.User, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.User{}, NewUnauthorizedError()
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		return database.User{}, lookupError(err, "user not found")
	}

	return user, nil
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func toUser(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		EmailAddress: u.EmailAddress,
		FullName:     u.FullName,
		IsFreelancer: u.IsFreelancer,
		Rating:       u.Rating,
		ReviewCount:  u.ReviewCount,
		CreatedAt:    u.CreatedAt,
	}
}

func toOrder(o database.Order) types.Order {
	order := types.Order{
		Id:           o.Id,
		Title:        o.Title,
		Description:  o.Description,
		Requirements: o.Requirements,
		Budget:       o.Budget,
		Status:       o.Status,
		Category:     o.Category,
		ClientId:     o.ClientId,
		FreelancerId: nullIntPtr(o.FreelancerId),
		CreatedAt:    o.CreatedAt,
	}
	if o.Deadline.Valid {
		deadline := o.Deadline.Time
		order.Deadline = &deadline
	}

	return order
}

func toOrders(orders []database.Order) []types.Order {
	res := make([]types.Order, 0, len(orders))
	for _, o := range orders {
		res = append(res, toOrder(o))
	}

	return res
}

func toBid(b database.Bid) types.Bid {
	return types.Bid{
		Id:             b.Id,
		OrderId:        b.OrderId,
		FreelancerId:   b.FreelancerId,
		Amount:         b.Amount,
		Proposal:       b.Proposal,
		PortfolioLinks: b.PortfolioLinks,
		Status:         b.Status,
		FreelancerName: b.FreelancerName,
		OrderTitle:     b.OrderTitle,
		CreatedAt:      b.CreatedAt,
	}
}

func toBids(bids []database.Bid) []types.Bid {
	res := make([]types.Bid, 0, len(bids))
	for _, b := range bids {
		res = append(res, toBid(b))
	}

	return res
}

func toChatMessage(m database.ChatMessage, viewerId int) types.ChatMessage {
	return types.ChatMessage{
		Id:          m.Id,
		OrderId:     m.OrderId,
		SenderId:    m.SenderId,
		SenderName:  m.SenderName,
		Message:     m.Message,
		MessageType: m.MessageType,
		IsOwn:       m.SenderId == viewerId,
		CreatedAt:   m.CreatedAt,
	}
}

func toNotification(n database.Notification) types.Notification {
	return types.Notification{
		Id:               n.Id,
		Title:            n.Title,
		Body:             n.Body,
		NotificationType: n.NotificationType,
		RelatedId:        nullIntPtr(n.RelatedId),
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}
}

func toReview(r database.Review) types.Review {
	review := types.Review{
		Id:             r.Id,
		OrderId:        r.OrderId,
		ReviewerId:     r.ReviewerId,
		ReviewedUserId: r.ReviewedUserId,
		ReviewerName:   r.ReviewerName,
		OrderTitle:     r.OrderTitle,
		Rating:         r.Rating,
		Comment:        r.Comment,
		Reply:          r.Reply,
		CreatedAt:      r.CreatedAt,
	}
	if r.UpdatedAt.Valid {
		updatedAt := r.UpdatedAt.Time
		review.UpdatedAt = &updatedAt
	}

	return review
}
