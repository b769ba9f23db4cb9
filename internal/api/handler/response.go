package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/maraichr/ontograph/pkg/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeAPIError writes e as the JSON error envelope. Server-side failures are
// logged with the request ID so they can be matched to the access log.
func writeAPIError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, e *apierr.Error) {
	if e.Status() >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), e.Message(),
			slog.String("code", string(e.Code())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.String("error", e.Error()))
	}
	writeJSON(w, e.Status(), e.Response())
}
