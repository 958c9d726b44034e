package api

import (
	"context"
	"net/http"

	"gochat/internal/config"
	"gochat/internal/db"
	"gochat/internal/model"
	"gochat/internal/realtime"
	"gochat/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// API wires the REST routes and the event stream endpoint.
type API struct {
	cfg      *config.Config
	dbMgr    *db.DBManager
	endpoint *realtime.Endpoint
	fanout   *service.Fanout
	presence *service.Presence
	archiver *service.Archiver
	logger   *zap.SugaredLogger
}

func New(
	cfg *config.Config,
	dbMgr *db.DBManager,
	endpoint *realtime.Endpoint,
	fanout *service.Fanout,
	presence *service.Presence,
	archiver *service.Archiver,
	logger *zap.SugaredLogger,
) *API {
	return &API{
		cfg:      cfg,
		dbMgr:    dbMgr,
		endpoint: endpoint,
		fanout:   fanout,
		presence: presence,
		archiver: archiver,
		logger:   logger,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(a.withUser)

	// Public routes.
	r.Post("/register", a.handleRegister)
	r.Post("/login", a.handleLogin)
	r.Get("/chats/{chatID}/messages/events", a.handleChatEvents)

	// Private routes.
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)

		r.Post("/me", a.handleMe)
		r.Post("/me/online", a.handleOnline)
		r.Get("/users/suggested", a.handleSuggestedUsers)
		r.Get("/users/search", a.handleSearchUsers)

		r.Post("/chats", a.handleCreateChat)
		r.Get("/chats", a.handleAllChats)
		r.Get("/chats/search", a.handleChatByUserIDs)
		r.Post("/chats/{chatID}/messages", a.handleCreateMessage)
		r.Get("/chats/{chatID}/messages", a.handleChatMessages)
		r.Post("/chats/{chatID}/messages/events", a.handleTyping)
	})

	return r
}

// HistoryStore is the chat store contract consumed by the stream endpoint:
// it verifies the chat exists and returns its bounded history.
type HistoryStore struct {
	dbMgr *db.DBManager
	limit int
}

func NewHistoryStore(dbMgr *db.DBManager, limit int) *HistoryStore {
	return &HistoryStore{dbMgr: dbMgr, limit: limit}
}

func (h *HistoryStore) ChatHistory(ctx context.Context, chatType, chatID string) ([]model.ChatMessage, error) {
	if _, err := db.SelectChat(ctx, h.dbMgr.Pool(), chatType, chatID); err != nil {
		return nil, err
	}
	return db.SelectChatMessages(ctx, h.dbMgr.Pool(), chatType, chatID, h.limit)
}
