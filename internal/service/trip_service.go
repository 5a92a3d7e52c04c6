// Package service orchestrates the engines, storage, and identity glue on
// behalf of the transport layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tripledger/tripledger/internal/auth"
	"github.com/tripledger/tripledger/internal/models"
	"github.com/tripledger/tripledger/internal/storage"
)

// TripService handles trip lifecycle and membership tokens.
type TripService struct {
	store storage.Store
	jwt   *auth.JWTManager
}

// NewTripService creates a new TripService.
func NewTripService(store storage.Store, jwt *auth.JWTManager) *TripService {
	return &TripService{store: store, jwt: jwt}
}

// Create validates and persists a new trip. joinPIN is optional; when set,
// joining the trip requires it.
func (s *TripService) Create(ctx context.Context, name, currencyCode string, participants []string, joinPIN string) (*models.Trip, error) {
	trip := &models.Trip{
		Name:         name,
		Currency:     strings.ToUpper(currencyCode),
		Participants: participants,
	}
	if err := trip.Validate(); err != nil {
		return nil, err
	}
	if joinPIN != "" {
		hash, err := auth.HashPIN(joinPIN)
		if err != nil {
			return nil, models.Validationf("joinPin", "%s", err)
		}
		trip.JoinPINHash = hash
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}
	slog.Info("Trip created", "trip_id", trip.ID, "participants", len(trip.Participants))
	return trip, nil
}

// Get retrieves a trip by id.
func (s *TripService) Get(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.store.GetTrip(ctx, tripID)
}

// Join authenticates a participant into a trip and returns a bearer token.
// The participant must be on the trip roster; PIN-protected trips require
// the matching PIN.
func (s *TripService) Join(ctx context.Context, tripID, participantID, pin string) (string, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return "", err
	}

	if !contains(trip.Participants, participantID) {
		return "", models.Validationf("participantId", "%q is not a participant of this trip", participantID)
	}
	if trip.JoinPINHash != "" {
		if err := auth.CheckPIN(trip.JoinPINHash, pin); err != nil {
			return "", err
		}
	}

	token, err := s.jwt.Generate(trip.ID, participantID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
