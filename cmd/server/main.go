package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/tripledger/tripledger/internal/auth"
	"github.com/tripledger/tripledger/internal/config"
	"github.com/tripledger/tripledger/internal/service"
	"github.com/tripledger/tripledger/internal/storage/sqlite"
	"github.com/tripledger/tripledger/internal/transport"
	"github.com/tripledger/tripledger/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	secret := cfg.JWTSecret
	if secret == "" {
		// An ephemeral secret keeps local development working; tokens do
		// not survive a restart, so deployments must set JWT_SECRET.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			slog.Error("Failed to generate ephemeral JWT secret", "error", err)
			os.Exit(1)
		}
		secret = hex.EncodeToString(buf)
		slog.Warn("JWT_SECRET not set; using ephemeral secret")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(secret, cfg.TokenTTL)
	handler := transport.NewHandler(
		service.NewTripService(store, jwtManager),
		service.NewExpenseService(store),
		service.NewSettlementService(store),
	)
	router := transport.NewRouter(handler, jwtManager)

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
