package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
)

const (
	recentReviewCount  = 5
	recentCommentRunes = 100
	proMinRating       = 4.5
	proMinReviews      = 10
)

type CreateReviewRequest struct {
	OrderId int    `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewReplyRequest struct {
	Reply string `json:"reply"`
}

func (s *WorkhubApp) createReview(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	order, err := s.db.GetOrderById(req.OrderId)
	if err != nil {
		s.writeError(w, lookupError(err, "order not found"))
		return
	}

	if order.Status != database.OrderStatusCompleted {
		s.writeError(w, NewApiError(http.StatusBadRequest, "can only review completed orders"))
		return
	}

	reviewedId, ok := order.Counterpart(userId)
	if !ok {
		s.writeError(w, NewForbiddenError())
		return
	}

	if s.db.ReviewExists(order.Id, userId) {
		s.writeError(w, NewApiError(http.StatusBadRequest, "already reviewed"))
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		s.writeError(w, NewApiError(http.StatusBadRequest, "rating must be between 1 and 5"))
		return
	}

	review, err := s.db.CreateReview(database.CreateReviewParams{
		OrderId:        order.Id,
		ReviewerId:     userId,
		ReviewedUserId: reviewedId,
		Rating:         req.Rating,
		Comment:        strings.TrimSpace(req.Comment),
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, NewApiError(http.StatusBadRequest, "already reviewed"))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.notify(reviewedId,
		"New review",
		fmt.Sprintf("You received a %d star review for order %q", review.Rating, order.Title),
		notifyNewReview,
		review.Id,
	)

	s.writeJson(w, http.StatusCreated, toReview(review))
}

// replyToReview lets the reviewed user answer a review.
func (s *WorkhubApp) replyToReview(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	reviewId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	var req ReviewReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	reply := strings.TrimSpace(req.Reply)
	if reply == "" {
		s.writeError(w, NewApiError(http.StatusBadRequest, "reply cannot be empty"))
		return
	}

	review, err := s.db.GetReviewById(reviewId)
	if err != nil {
		s.writeError(w, lookupError(err, "review not found"))
		return
	}

	if review.ReviewedUserId != userId {
		s.writeError(w, NewApiError(http.StatusForbidden, "not authorized to reply"))
		return
	}

	updated, err := s.db.SetReviewReply(review.Id, reply)
	if err != nil {
		s.writeError(w, lookupError(err, "review not found"))
		return
	}

	s.writeJson(w, http.StatusOK, toReview(updated))
}

func truncateComment(comment string) string {
	runes := []rune(comment)
	if len(runes) <= recentCommentRunes {
		return comment
	}

	return string(runes[:recentCommentRunes]) + "..."
}

func (s *WorkhubApp) reviewStats(w http.ResponseWriter, r *http.Request) {
	userId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	summary, err := s.db.GetRatingSummary(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	res := types.ReviewStats{
		TotalReviews:       summary.Count,
		AverageRating:      math.Round(summary.Average*10) / 10,
		RatingDistribution: summary.Distribution,
		RecentReviews:      make([]types.RecentReview, 0, recentReviewCount),
	}

	if summary.Count > 0 {
		recent, err := s.db.ListReviewsForUser(userId, recentReviewCount, 0)
		if err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
		for _, rv := range recent {
			res.RecentReviews = append(res.RecentReviews, types.RecentReview{
				Rating:    rv.Rating,
				Comment:   truncateComment(rv.Comment),
				CreatedAt: rv.CreatedAt,
			})
		}
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *WorkhubApp) userRating(w http.ResponseWriter, r *http.Request) {
	userId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	if _, err := s.db.GetUserById(userId); err != nil {
		s.writeError(w, lookupError(err, "user not found"))
		return
	}

	summary, err := s.db.GetRatingSummary(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	level := "Standard"
	if summary.Average >= proMinRating {
		level = "PRO"
	}

	s.writeJson(w, http.StatusOK, types.UserRating{
		Rating:      summary.Average,
		ReviewCount: summary.Count,
		ProEligible: summary.Average >= proMinRating && summary.Count >= proMinReviews,
		Level:       level,
	})
}
