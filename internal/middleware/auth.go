// Package middleware provides HTTP middleware for the tripledger API:
// request logging, CORS, and trip-scoped JWT authentication.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tripledger/tripledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// tripIDKey is the context key for the authenticated trip id.
	tripIDKey contextKey = "trip_id"
	// participantIDKey is the context key for the authenticated participant.
	participantIDKey contextKey = "participant_id"
)

// GetTripID extracts the authenticated trip id from the context.
// Returns empty string if not found.
func GetTripID(ctx context.Context) string {
	tripID, _ := ctx.Value(tripIDKey).(string)
	return tripID
}

// GetParticipantID extracts the authenticated participant id from the
// context. Returns empty string if not found.
func GetParticipantID(ctx context.Context) string {
	participantID, _ := ctx.Value(participantIDKey).(string)
	return participantID
}

// RequireAuth validates the Bearer token and stores the trip and participant
// ids in the request context. Requests without a valid token get 401.
func RequireAuth(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				http.Error(w, "authorization header must use Bearer scheme", http.StatusUnauthorized)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}
			recordParticipant(w, claims.ParticipantID)

			ctx := context.WithValue(r.Context(), tripIDKey, claims.TripID)
			ctx = context.WithValue(ctx, participantIDKey, claims.ParticipantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
