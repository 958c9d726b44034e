package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gochat/internal/db"
	"gochat/internal/model"

	"go.uber.org/zap"
)

// TokenVerifier validates a session token and returns the user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// HistoryStore fetches the bounded message history sent as the initial
// snapshot.
type HistoryStore interface {
	ChatHistory(ctx context.Context, chatType, chatID string) ([]model.ChatMessage, error)
}

// ChatHosts is this host's membership in the shared routing registry.
type ChatHosts interface {
	Register(ctx context.Context, chatID string) error
	Deregister(ctx context.Context, chatID string) error
	Refresh(ctx context.Context, chatID string) error
}

// Endpoint serves the long-lived event stream for a chat: it authenticates,
// replays history, then streams live frames until the client disconnects.
type Endpoint struct {
	registry        *Registry
	verifier        TokenVerifier
	history         HistoryStore
	hosts           ChatHosts
	refreshInterval time.Duration
	logger          *zap.SugaredLogger
}

func NewEndpoint(
	registry *Registry,
	verifier TokenVerifier,
	history HistoryStore,
	hosts ChatHosts,
	refreshInterval time.Duration,
	logger *zap.SugaredLogger,
) *Endpoint {
	return &Endpoint{
		registry:        registry,
		verifier:        verifier,
		history:         history,
		hosts:           hosts,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

// ServeEvents handles GET /chats/{chatId}/messages/events. Everything that
// can fail does so before any registration happens, so a rejected connection
// leaks no state.
func (e *Endpoint) ServeEvents(w http.ResponseWriter, r *http.Request, chatType, chatID string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	userID, err := e.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	messages, err := e.history.ChatHistory(r.Context(), chatType, chatID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "chat not found", http.StatusNotFound)
		} else {
			e.logger.Errorw("failed to load chat history", "chatId", chatID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disables buffering for Nginx, required for SSE to reach the client.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The snapshot goes out before the connection is registered, so any live
	// event delivered afterwards logically follows it.
	history := Frame{
		ID:    chatID,
		Event: FrameHistory,
		Data:  model.ToChatMessageViews(userID, messages),
	}
	if payload, err := history.Bytes(); err == nil {
		w.Write(payload)
		flusher.Flush()
	} else {
		e.logger.Errorw("failed to encode history frame", "chatId", chatID, "error", err)
		return
	}

	conn := e.registry.Register(userID, chatID)
	if err := e.hosts.Register(r.Context(), chatID); err != nil {
		e.logger.Errorw("failed to join routing registry", "chatId", chatID, "error", err)
	}

	e.logger.Infow("stream opened",
		"clientId", conn.ClientID, "userId", userID, "chatId", chatID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go e.refreshLoop(ctx, chatID)

	defer e.teardown(conn)

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-conn.Frames():
			if _, err := w.Write(payload); err != nil {
				// Transport failure, the context cancellation follows.
				e.logger.Warnw("stream write failed", "clientId", conn.ClientID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// refreshLoop extends the routing registry entry's TTL while the connection
// lives. The interval is strictly shorter than the TTL window so a live host
// is never evicted by its own expiry.
func (e *Endpoint) refreshLoop(ctx context.Context, chatID string) {
	ticker := time.NewTicker(e.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.hosts.Refresh(ctx, chatID); err != nil && ctx.Err() == nil {
				e.logger.Warnw("routing registry refresh failed", "chatId", chatID, "error", err)
			}
		}
	}
}

// teardown removes the local registration and, if this was the last local
// subscriber for the chat, withdraws the host from the routing registry.
func (e *Endpoint) teardown(conn *Conn) {
	e.registry.Deregister(conn)

	if !e.registry.Subscribed(conn.ChatID) {
		// The request context is already done at this point.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.hosts.Deregister(ctx, conn.ChatID); err != nil {
			e.logger.Warnw("failed to leave routing registry", "chatId", conn.ChatID, "error", err)
		}
	}

	e.logger.Infow("stream closed",
		"clientId", conn.ClientID, "userId", conn.UserID, "chatId", conn.ChatID)
}
