package api

import (
	"errors"
	"net/http"

	"gochat/internal/db"

	jsoniter "github.com/json-iterator/go"
)

var jsonFast = jsoniter.ConfigFastest

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonFast.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		// Headers are already out, nothing left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsonFast.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// writeStoreError maps store errors to HTTP statuses without leaking
// internals for unexpected failures.
func (a *API) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		a.logger.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
