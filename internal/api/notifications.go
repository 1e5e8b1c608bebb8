package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
	"go.uber.org/zap"
)

// Notification types.
const (
	notifyNewOrder       = "new_order"
	notifyNewBid         = "new_bid"
	notifyBidAccepted    = "bid_accepted"
	notifyBidRejected    = "bid_rejected"
	notifyOrderCompleted = "order_completed"
	notifyOrderCancelled = "order_cancelled"
	notifyNewMessage     = "new_message"
	notifyNewReview      = "new_review"
)

// notify stores a notification for userId. Failures are logged and do not
// fail the request that triggered them.
func (s *WorkhubApp) notify(userId int, title, body, notificationType string, relatedId int) {
	_, err := s.db.CreateNotification(database.CreateNotificationParams{
		UserId:           userId,
		Title:            title,
		Body:             body,
		NotificationType: notificationType,
		RelatedId:        sql.NullInt64{Int64: int64(relatedId), Valid: relatedId > 0},
	})
	if err != nil {
		s.log.Warn("failed to create notification",
			zap.Int("user_id", userId),
			zap.String("type", notificationType),
			zap.Error(err),
		)
	}
}

func (s *WorkhubApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	notifications, err := s.db.ListNotifications(userId, notificationPage)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	res := make([]types.Notification, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, toNotification(n))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *WorkhubApp) unreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	count, err := s.db.CountUnreadNotifications(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"count": count})
}

func (s *WorkhubApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	notificationId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.db.MarkNotificationRead(notificationId, userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewApiError(http.StatusNotFound, "notification not found"))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *WorkhubApp) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	updated, err := s.db.MarkAllNotificationsRead(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"updated": updated})
}
