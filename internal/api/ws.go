package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (s *WorkhubApp) serveWs(w http.ResponseWriter, r *http.Request) {
	orderId, ok := pathId(r, "order_id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("error upgrading connection", zap.Error(err))
		return
	}

	s.cs.ServeSession(conn, r.URL.Query().Get("token"), orderId)
}
