package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/workhub/internal/auth"
	"github.com/npezzotti/workhub/internal/config"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/server"
	"go.uber.org/zap"
)

type WorkhubApp struct {
	log            *zap.Logger
	db             database.Repository
	mux            *http.Server
	cs             *server.ChatServer
	auth           server.TokenVerifier
	issuer         *auth.TokenIssuer
	tokenTTL       time.Duration
	allowedOrigins []string
}

func NewWorkhubApp(mux *http.ServeMux, logger *zap.Logger, cs *server.ChatServer, db database.Repository, verifier server.TokenVerifier, cfg *config.Config) *WorkhubApp {
	s := &WorkhubApp{
		log:            logger,
		db:             db,
		cs:             cs,
		auth:           verifier,
		issuer:         auth.NewTokenIssuer(cfg.SigningKey),
		tokenTTL:       cfg.TokenTTL,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/token", s.login)
	mux.HandleFunc("POST /api/logout", s.logout)
	mux.HandleFunc("GET /api/users/me", s.authMiddleware(s.currentUser))
	mux.HandleFunc("PATCH /api/users/me", s.authMiddleware(s.updateCurrentUser))
	mux.HandleFunc("GET /api/users/{id}", s.authMiddleware(s.userProfile))
	mux.HandleFunc("GET /api/users/{id}/reviews", s.authMiddleware(s.userReviews))
	mux.HandleFunc("GET /api/users/{id}/reviews/stats", s.authMiddleware(s.reviewStats))
	mux.HandleFunc("GET /api/users/{id}/rating", s.authMiddleware(s.userRating))

	mux.HandleFunc("POST /api/orders", s.authMiddleware(s.createOrder))
	mux.HandleFunc("GET /api/orders", s.authMiddleware(s.listOrders))
	mux.HandleFunc("GET /api/orders/search", s.authMiddleware(s.searchOrders))
	mux.HandleFunc("GET /api/orders/categories", s.orderCategories)
	mux.HandleFunc("GET /api/my-orders", s.authMiddleware(s.myOrders))
	mux.HandleFunc("GET /api/orders/{id}", s.authMiddleware(s.getOrder))
	mux.HandleFunc("PATCH /api/orders/{id}/complete", s.authMiddleware(s.completeOrder))
	mux.HandleFunc("PATCH /api/orders/{id}/cancel", s.authMiddleware(s.cancelOrder))
	mux.HandleFunc("GET /api/orders/{id}/bids", s.authMiddleware(s.orderBids))
	mux.HandleFunc("GET /api/orders/{id}/messages", s.authMiddleware(s.orderMessages))
	mux.HandleFunc("POST /api/orders/{id}/messages", s.authMiddleware(s.postOrderMessage))

	mux.HandleFunc("POST /api/bids", s.authMiddleware(s.createBid))
	mux.HandleFunc("GET /api/bids/{id}", s.authMiddleware(s.getBid))
	mux.HandleFunc("GET /api/my-bids", s.authMiddleware(s.myBids))
	mux.HandleFunc("PATCH /api/bids/{id}/accept", s.authMiddleware(s.acceptBid))
	mux.HandleFunc("PATCH /api/bids/{id}/reject", s.authMiddleware(s.rejectBid))

	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.HandleFunc("GET /api/notifications/unread-count", s.authMiddleware(s.unreadNotificationCount))
	mux.HandleFunc("PATCH /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))
	mux.HandleFunc("PATCH /api/notifications/read-all", s.authMiddleware(s.markAllNotificationsRead))

	mux.HandleFunc("POST /api/reviews", s.authMiddleware(s.createReview))
	mux.HandleFunc("POST /api/reviews/{id}/reply", s.authMiddleware(s.replyToReview))

	// the chat session authenticates the query token itself so that it can
	// report failures as close frames
	mux.HandleFunc("GET /ws/{order_id}", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.CombinedLoggingHandler(zap.NewStdLog(logger.Named("access")).Writer(), h)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *WorkhubApp) Start() error {
	s.log.Info("starting server", zap.String("addr", s.mux.Addr))
	return s.mux.ListenAndServe()
}

func (s *WorkhubApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
