package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/npezzotti/workhub/internal/database"
	"go.uber.org/zap"
)

const (
	defaultCategory     = "other"
	newOrderNotifyLimit = 20
	searchPageSize      = 50
)

// defaultCategories is offered while no order has a category yet.
var defaultCategories = []string{"design", "development", "copywriting", "marketing", defaultCategory}

type CreateOrderRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Budget       float64    `json:"budget"`
	Category     string     `json:"category"`
	Deadline     *time.Time `json:"deadline"`
}

// orderForRequest loads the order named by the {id} path value together
// with the authenticated user id.
func (s *WorkhubApp) orderForRequest(r *http.Request) (database.Order, int, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.Order{}, 0, NewUnauthorizedError()
	}

	orderId, ok := pathId(r, "id")
	if !ok {
		return database.Order{}, 0, NewBadRequestError()
	}

	order, err := s.db.GetOrderById(orderId)
	if err != nil {
		return database.Order{}, 0, lookupError(err, "order not found")
	}

	return order, userId, nil
}

func (s *WorkhubApp) createOrder(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if user.IsFreelancer {
		s.writeError(w, NewApiError(http.StatusBadRequest, "freelancers cannot create orders"))
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		s.writeError(w, NewApiError(http.StatusBadRequest, "title and description are required"))
		return
	}
	if req.Budget < 0 {
		s.writeError(w, NewApiError(http.StatusBadRequest, "budget cannot be negative"))
		return
	}
	if req.Category == "" {
		req.Category = defaultCategory
	}

	params := database.CreateOrderParams{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Budget:       req.Budget,
		ClientId:     user.Id,
		Category:     req.Category,
	}
	if req.Deadline != nil {
		params.Deadline = sql.NullTime{Time: req.Deadline.UTC(), Valid: true}
	}

	order, err := s.db.CreateOrder(params)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	freelancers, err := s.db.ListActiveFreelancerIds(newOrderNotifyLimit)
	if err != nil {
		s.log.Warn("list freelancers to notify", zap.Int("order_id", order.Id), zap.Error(err))
	}
	for _, id := range freelancers {
		s.notify(id,
			"New order in your feed",
			fmt.Sprintf("A new order was posted: %q with a budget of %.2f", order.Title, order.Budget),
			notifyNewOrder,
			order.Id,
		)
	}

	s.writeJson(w, http.StatusCreated, toOrder(order))
}

func (s *WorkhubApp) listOrders(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	limit, offset, ok := pagination(r, defaultPageSize, maxPageSize)
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	params := database.ListOrdersParams{UserId: user.Id, Limit: limit, Offset: offset}

	var orders []database.Order
	var err error
	if user.IsFreelancer {
		orders, err = s.db.ListOpenOrders(params)
	} else {
		orders, err = s.db.ListOrdersByClient(params)
	}
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toOrders(orders))
}

func (s *WorkhubApp) myOrders(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	limit, offset, ok := pagination(r, defaultPageSize, maxPageSize)
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	orders, err := s.db.ListOrdersForUser(database.ListOrdersParams{UserId: userId, Limit: limit, Offset: offset})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toOrders(orders))
}

func (s *WorkhubApp) getOrder(w http.ResponseWriter, r *http.Request) {
	order, _, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toOrder(order))
}

func (s *WorkhubApp) completeOrder(w http.ResponseWriter, r *http.Request) {
	order, userId, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if order.ClientId != userId {
		s.writeError(w, NewApiError(http.StatusForbidden, "only the client can complete the order"))
		return
	}

	if order.Status != database.OrderStatusInProgress {
		s.writeError(w, NewApiError(http.StatusBadRequest, "order is not in progress"))
		return
	}

	updated, err := s.db.UpdateOrderStatus(order.Id, database.OrderStatusCompleted)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if freelancerId, ok := updated.Counterpart(userId); ok {
		s.notify(freelancerId,
			"Order completed",
			fmt.Sprintf("The client marked order %q as completed", updated.Title),
			notifyOrderCompleted,
			updated.Id,
		)
	}
	s.notify(userId,
		"Order completed",
		fmt.Sprintf("You marked order %q as completed. Leave a review for the freelancer", updated.Title),
		notifyOrderCompleted,
		updated.Id,
	)

	s.writeJson(w, http.StatusOK, toOrder(updated))
}

func (s *WorkhubApp) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, userId, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if !order.HasParticipant(userId) {
		s.writeError(w, NewApiError(http.StatusForbidden, "only order participants can cancel the order"))
		return
	}

	if order.Status != database.OrderStatusOpen && order.Status != database.OrderStatusInProgress {
		s.writeError(w, NewApiError(http.StatusBadRequest, "order cannot be cancelled"))
		return
	}

	updated, err := s.db.UpdateOrderStatus(order.Id, database.OrderStatusCancelled)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if other, ok := updated.Counterpart(userId); ok {
		s.notify(other,
			"Order cancelled",
			fmt.Sprintf("Order %q was cancelled", updated.Title),
			notifyOrderCancelled,
			updated.Id,
		)
	}

	s.writeJson(w, http.StatusOK, toOrder(updated))
}

// searchOrders filters the orders the user can browse: every open order for
// freelancers, their own orders for clients.
func (s *WorkhubApp) searchOrders(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	limit, offset, ok := skipLimit(r, searchPageSize, maxPageSize)
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	minBudget, ok := queryFloat(r, "min_budget")
	if !ok {
		s.writeError(w, NewApiError(http.StatusBadRequest, "invalid min_budget"))
		return
	}
	maxBudget, ok := queryFloat(r, "max_budget")
	if !ok {
		s.writeError(w, NewApiError(http.StatusBadRequest, "invalid max_budget"))
		return
	}

	query := r.URL.Query()
	orders, err := s.db.SearchOrders(database.SearchOrdersParams{
		OpenOnly:  user.IsFreelancer,
		ClientId:  user.Id,
		Query:     strings.TrimSpace(query.Get("q")),
		MinBudget: minBudget,
		MaxBudget: maxBudget,
		Category:  strings.TrimSpace(query.Get("category")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toOrders(orders))
}

func (s *WorkhubApp) orderCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.db.ListOrderCategories()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if len(categories) == 0 {
		categories = defaultCategories
	}

	s.writeJson(w, http.StatusOK, categories)
}
