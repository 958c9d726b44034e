package api

import (
	"context"
	"net/http"
	"time"

	"gochat/internal/db"
	"gochat/internal/model"

	"github.com/go-chi/chi/v5"
)

const defaultChatLimit = 50

type createChatRequest struct {
	Type    string   `json:"type"`
	UserIDs []string `json:"userIds"`
}

type createMessageRequest struct {
	Body string `json:"body"`
}

func (a *API) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req createChatRequest
	if err := jsonFast.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateChatType(req.Type); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := db.InsertChat(r.Context(), a.dbMgr.Pool(), req.Type, userID, req.UserIDs)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"chat": model.ToChatView(userID, chat),
	})
}

func (a *API) handleAllChats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	chats, err := db.SelectAllChats(r.Context(), a.dbMgr.Pool(), userID, defaultChatLimit)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	// Every distinct participant across all chats, decorated with presence.
	seen := make(map[string]bool)
	uniqueIDs := []string{}
	for _, chat := range chats {
		for _, id := range chat.UserIDs {
			if !seen[id] {
				seen[id] = true
				uniqueIDs = append(uniqueIDs, id)
			}
		}
	}

	users, err := db.SelectUsersByIDs(r.Context(), a.dbMgr.Pool(), uniqueIDs)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"chats": model.ToChatViews(userID, chats),
		"users": a.toUserViews(r, userID, users),
	})
}

func (a *API) handleChatByUserIDs(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	chatType := r.URL.Query().Get("type")
	if err := model.ValidateChatType(chatType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userIDs := append(r.URL.Query()["userIds"], userID)
	chat, err := db.SelectChatByUserIDs(r.Context(), a.dbMgr.Pool(), chatType, userIDs)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"chat": model.ToChatView(userID, chat),
	})
}

func (a *API) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	chatID := chi.URLParam(r, "chatID")

	chatType := r.URL.Query().Get("type")
	if err := model.ValidateChatType(chatType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createMessageRequest
	if err := jsonFast.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateMessageBody(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := db.InsertChatMessage(r.Context(), a.dbMgr.Pool(), chatType, userID, chatID, req.Body)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	// Persistence already succeeded; live delivery is best-effort and must
	// not delay or fail the response.
	a.publish(model.NewMessageCreatedEvent(userID, msg))
	a.archiver.Archive(msg)

	writeData(w, http.StatusCreated, map[string]any{
		"message": model.ToChatMessageView(userID, msg),
	})
}

func (a *API) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	chatID := chi.URLParam(r, "chatID")

	chatType := r.URL.Query().Get("type")
	if err := model.ValidateChatType(chatType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := db.SelectChatMessages(r.Context(), a.dbMgr.Pool(), chatType, chatID, a.cfg.HistoryLimit)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"messages": model.ToChatMessageViews(userID, msgs),
	})
}

// handleTyping broadcasts a transient typing indicator. Nothing is stored.
func (a *API) handleTyping(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	chatID := chi.URLParam(r, "chatID")

	a.publish(model.NewIsTypingEvent(userID, chatID))
	w.WriteHeader(http.StatusNoContent)
}

// handleChatEvents opens the long-lived SSE stream. Authentication happens
// inside the endpoint via the token query parameter, since EventSource
// clients cannot set headers.
func (a *API) handleChatEvents(w http.ResponseWriter, r *http.Request) {
	chatType := r.URL.Query().Get("type")
	if err := model.ValidateChatType(chatType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.endpoint.ServeEvents(w, r, chatType, chi.URLParam(r, "chatID"))
}

// publish fans the event out on a detached context so a finished HTTP
// request cannot cancel delivery mid-flight.
func (a *API) publish(event model.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.fanout.Publish(ctx, event)
	}()
}
