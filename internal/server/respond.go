package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/giobyte8/newsroom/internal/news"
	"github.com/giobyte8/newsroom/internal/phonedb"
	"github.com/giobyte8/newsroom/internal/storage"
	"github.com/giobyte8/newsroom/internal/thumbfield"
	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to an HTTP status and writes them
// as a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, news.ErrNotFound),
		errors.Is(err, phonedb.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, news.ErrDuplicate),
		errors.Is(err, phonedb.ErrDuplicate),
		errors.Is(err, thumbfield.ErrNameCollision):
		return http.StatusConflict

	case errors.Is(err, news.ErrInvalid),
		errors.Is(err, phonedb.ErrInvalidName),
		errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, thumbfield.ErrNaming),
		errors.Is(err, thumbsgen.ErrDecode),
		errors.Is(err, thumbsgen.ErrUnsupportedFormat),
		errors.Is(err, thumbsgen.ErrInvalidSize):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
