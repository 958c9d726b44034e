package api

import (
	"net/http"

	"gochat/internal/auth"
	"gochat/internal/db"
	"gochat/internal/model"
)

const defaultUserLimit = 20

type credentialsRequest struct {
	Name string `json:"name"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := jsonFast.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := db.InsertUser(r.Context(), a.dbMgr.Pool(), req.Name)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	token, err := auth.SignToken(a.cfg.JWTSecret, user.ID)
	if err != nil {
		a.logger.Errorw("failed to sign token", "userId", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, http.StatusCreated, map[string]string{"token": token})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := jsonFast.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := db.SelectUserByName(r.Context(), a.dbMgr.Pool(), req.Name)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	token, err := auth.SignToken(a.cfg.JWTSecret, user.ID)
	if err != nil {
		a.logger.Errorw("failed to sign token", "userId", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, http.StatusOK, map[string]string{"token": token})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	user, err := db.SelectUserByID(r.Context(), a.dbMgr.Pool(), userID)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"user": model.ToUserView(userID, user, nil),
	})
}

// handleOnline records a presence heartbeat for the caller.
func (a *API) handleOnline(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	if err := a.presence.Heartbeat(r.Context(), userID); err != nil {
		a.logger.Errorw("presence heartbeat failed", "userId", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSuggestedUsers(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	users, err := db.SelectSuggestedUsers(r.Context(), a.dbMgr.Pool(), userID, defaultUserLimit)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"users": a.toUserViews(r, userID, users),
	})
}

func (a *API) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	users, err := db.SearchUsers(r.Context(), a.dbMgr.Pool(), r.URL.Query().Get("name"), defaultUserLimit)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"users": a.toUserViews(r, userID, users),
	})
}

// toUserViews decorates users with their best-effort online status.
func (a *API) toUserViews(r *http.Request, userID string, users []model.User) []model.UserView {
	userIDs := make([]string, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}
	online := a.presence.IsOnlineBatch(r.Context(), userIDs)
	return model.ToUserViews(userID, users, online)
}
