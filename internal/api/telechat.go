package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/aliyevm/telechat/internal/config"
	"github.com/aliyevm/telechat/internal/stats"
	"github.com/aliyevm/telechat/internal/store"
	"github.com/gorilla/handlers"
)

const (
	authLimitRPS   = 5
	authLimitBurst = 10
)

type TelechatApp struct {
	log         *log.Logger
	store       store.Repository
	mux         *http.Server
	stats       stats.Provider
	signingKey  []byte
	authLimiter *limiterPool
}

func NewTelechatApp(mux *http.ServeMux, logger *log.Logger, repo store.Repository, sp stats.Provider, cfg *config.Config) *TelechatApp {
	s := &TelechatApp{
		log:         logger,
		store:       repo,
		stats:       sp,
		signingKey:  cfg.SigningKey,
		authLimiter: newLimiterPool(authLimitRPS, authLimitBurst),
	}

	if sp != nil {
		sp.RegisterMetric(stats.ActiveSessions)
		sp.RegisterMetric(stats.MessagesSent)
		sp.RegisterMetric(stats.ChatsCreated)
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.rateLimitMiddleware(s.register))
	mux.HandleFunc("POST /api/auth/login", s.rateLimitMiddleware(s.login))
	mux.HandleFunc("POST /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/auth/me", s.authMiddleware(s.me))
	mux.HandleFunc("GET /api/users", s.authMiddleware(s.listUsers))
	mux.HandleFunc("PUT /api/users/profile", s.authMiddleware(s.updateProfile))
	mux.HandleFunc("GET /api/chats", s.authMiddleware(s.listChats))
	mux.HandleFunc("POST /api/chats/group", s.authMiddleware(s.createGroupChat))
	mux.HandleFunc("POST /api/chats/private", s.authMiddleware(s.getOrCreatePrivateChat))
	mux.HandleFunc("PUT /api/chats/{id}", s.authMiddleware(s.updateChat))
	mux.HandleFunc("DELETE /api/chats/{id}", s.authMiddleware(s.deleteChat))
	mux.HandleFunc("POST /api/chats/{id}/users", s.authMiddleware(s.addParticipant))
	mux.HandleFunc("DELETE /api/chats/{id}/users/{userId}", s.authMiddleware(s.removeParticipant))
	mux.HandleFunc("GET /api/chats/{id}/messages", s.authMiddleware(s.listMessages))
	mux.HandleFunc("POST /api/chats/{id}/messages", s.authMiddleware(s.sendMessage))
	mux.HandleFunc("PUT /api/messages/{id}", s.authMiddleware(s.editMessage))
	mux.HandleFunc("DELETE /api/messages/{id}", s.authMiddleware(s.deleteMessage))
	mux.HandleFunc("POST /api/messages/{id}/reactions", s.authMiddleware(s.updateReactions))
	mux.HandleFunc("POST /api/messages/{id}/pin", s.authMiddleware(s.pinMessage))
	mux.HandleFunc("POST /api/messages/{id}/unpin", s.authMiddleware(s.unpinMessage))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *TelechatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *TelechatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
