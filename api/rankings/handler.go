package rankings

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/optimanage/core/ranklog"
)

// LatestSource returns the most recent ranking.
type LatestSource interface {
	Latest(ctx context.Context) (ranklog.Entry, bool, error)
}

// NewHistoryHandler returns an HTTP handler exposing logged rankings via
// GET /api/rankings. Supported filters are start and end (RFC3339),
// material_id and limit. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewHistoryHandler(store ranklog.Store, token string) http.Handler {
	return authorize(token, func(w http.ResponseWriter, r *http.Request) {
		q := ranklog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.MaterialID = r.URL.Query().Get("material_id")
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		entries, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []ranklog.Entry{}
		}
		writeJSON(w, entries)
	})
}

// NewLatestHandler serves GET /api/rankings/latest. It answers 404 until a
// ranking has been produced.
func NewLatestHandler(src LatestSource, token string) http.Handler {
	return authorize(token, func(w http.ResponseWriter, r *http.Request) {
		e, ok, err := src.Latest(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no ranking yet", http.StatusNotFound)
			return
		}
		writeJSON(w, e)
	})
}

func authorize(token string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
