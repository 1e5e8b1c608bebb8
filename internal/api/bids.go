package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/npezzotti/workhub/internal/database"
)

type CreateBidRequest struct {
	OrderId        int     `json:"order_id"`
	Amount         float64 `json:"amount"`
	Proposal       string  `json:"proposal"`
	PortfolioLinks string  `json:"portfolio_links"`
}

// bidForRequest loads the bid named by the {id} path value and its order.
func (s *WorkhubApp) bidForRequest(r *http.Request) (database.Bid, database.Order, int, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.Bid{}, database.Order{}, 0, NewUnauthorizedError()
	}

	bidId, ok := pathId(r, "id")
	if !ok {
		return database.Bid{}, database.Order{}, 0, NewBadRequestError()
	}

	bid, err := s.db.GetBidById(bidId)
	if err != nil {
		return database.Bid{}, database.Order{}, 0, lookupError(err, "bid not found")
	}

	order, err := s.db.GetOrderById(bid.OrderId)
	if err != nil {
		return database.Bid{}, database.Order{}, 0, lookupError(err, "order not found")
	}

	return bid, order, userId, nil
}

func (s *WorkhubApp) createBid(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	var req CreateBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if req.Amount <= 0 {
		s.writeError(w, NewApiError(http.StatusBadRequest, "amount must be positive"))
		return
	}

	order, err := s.db.GetOrderById(req.OrderId)
	if err != nil {
		s.writeError(w, lookupError(err, "order not found"))
		return
	}

	if !user.IsFreelancer {
		s.writeError(w, NewApiError(http.StatusBadRequest, "only freelancers can create bids"))
		return
	}

	if order.Status != database.OrderStatusOpen {
		s.writeError(w, NewApiError(http.StatusBadRequest, "order is not open for bidding"))
		return
	}

	if s.db.BidExists(order.Id, user.Id) {
		s.writeError(w, NewApiError(http.StatusBadRequest, "you have already bid on this order"))
		return
	}

	bid, err := s.db.CreateBid(database.CreateBidParams{
		OrderId:        order.Id,
		FreelancerId:   user.Id,
		Amount:         req.Amount,
		Proposal:       req.Proposal,
		PortfolioLinks: req.PortfolioLinks,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, NewApiError(http.StatusBadRequest, "you have already bid on this order"))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.notify(order.ClientId,
		"New bid on your order",
		fmt.Sprintf("%s bid %.2f on your order %q", user.FullName, bid.Amount, order.Title),
		notifyNewBid,
		bid.Id,
	)

	s.writeJson(w, http.StatusCreated, toBid(bid))
}

func (s *WorkhubApp) getBid(w http.ResponseWriter, r *http.Request) {
	bid, order, userId, errResp := s.bidForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if !order.HasParticipant(userId) && bid.FreelancerId != userId {
		s.writeError(w, NewForbiddenError())
		return
	}

	s.writeJson(w, http.StatusOK, toBid(bid))
}

func (s *WorkhubApp) myBids(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	bids, err := s.db.ListBidsByFreelancer(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toBids(bids))
}

func (s *WorkhubApp) orderBids(w http.ResponseWriter, r *http.Request) {
	order, userId, errResp := s.orderForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if order.ClientId != userId {
		s.writeError(w, NewApiError(http.StatusForbidden, "not authorized to view bids for this order"))
		return
	}

	bids, err := s.db.ListBidsByOrder(order.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toBids(bids))
}

func (s *WorkhubApp) acceptBid(w http.ResponseWriter, r *http.Request) {
	bid, order, userId, errResp := s.bidForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if order.ClientId != userId {
		s.writeError(w, NewApiError(http.StatusForbidden, "not authorized to accept this bid"))
		return
	}

	if order.Status != database.OrderStatusOpen {
		s.writeError(w, NewApiError(http.StatusBadRequest, "order is not open"))
		return
	}

	res, err := s.db.AcceptBid(bid.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	for _, rejected := range res.Rejected {
		s.notify(rejected.FreelancerId,
			"Bid rejected",
			fmt.Sprintf("The client chose another freelancer for order %q", order.Title),
			notifyBidRejected,
			rejected.Id,
		)
	}
	s.notify(bid.FreelancerId,
		"Bid accepted",
		fmt.Sprintf("Your bid on order %q was accepted", order.Title),
		notifyBidAccepted,
		order.Id,
	)
	s.notify(userId,
		"Freelancer assigned",
		fmt.Sprintf("%s is now working on order %q", bid.FreelancerName, order.Title),
		notifyBidAccepted,
		order.Id,
	)

	s.writeJson(w, http.StatusOK, map[string]any{
		"bid":   toBid(res.Accepted),
		"order": toOrder(res.Order),
	})
}

func (s *WorkhubApp) rejectBid(w http.ResponseWriter, r *http.Request) {
	bid, order, userId, errResp := s.bidForRequest(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if order.ClientId != userId {
		s.writeError(w, NewApiError(http.StatusForbidden, "not authorized to reject this bid"))
		return
	}

	if bid.Status != database.BidStatusPending {
		s.writeError(w, NewApiError(http.StatusBadRequest, "bid is not pending"))
		return
	}

	rejected, err := s.db.RejectBid(bid.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.notify(bid.FreelancerId,
		"Bid rejected",
		fmt.Sprintf("Your bid on order %q was rejected", order.Title),
		notifyBidRejected,
		bid.Id,
	)

	s.writeJson(w, http.StatusOK, toBid(rejected))
}
