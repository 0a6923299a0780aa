package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/monitoring"
)

// HeaderActor names the user performing a mutation.
const HeaderActor = "X-Actor"

type ctxKey int

const actorKey ctxKey = iota

// requestID tags every request with a UUID, honoring an incoming
// X-Request-ID. chi's middleware.GetReqID reads it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reportPanics forwards panics to the monitor before middleware.Recoverer
// turns them into a 500.
func reportPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec != http.ErrAbortHandler {
					monitoring.CaptureException(fmt.Errorf("panic: %v", rec), map[string]string{
						"route":      r.Method + " " + r.URL.Path,
						"request_id": middleware.GetReqID(r.Context()),
					})
				}
				panic(rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bearer rejects requests without "Authorization: Bearer <token>". An empty
// token disables the check.
func bearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{Kind: "unauthorized", Message: "unauthorized"}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireActor demands X-Actor on every mutating request.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		actor := strings.TrimSpace(r.Header.Get(HeaderActor))
		if actor == "" {
			writeError(w, r, apperr.Validation("api.actor", apperr.CodeInvalidInput, "%s header is required", HeaderActor))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

func actorOf(r *http.Request) string {
	a, _ := r.Context().Value(actorKey).(string)
	return a
}
