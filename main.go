package main

import (
	"net/http"
	"time"

	"aidocs/config"
	"aidocs/config/database"
	"aidocs/internal/assistant"
	"aidocs/internal/bridge"
	"aidocs/internal/presence"
	"aidocs/pkg/logger"
	"aidocs/router"
	"aidocs/socket"
)

const flushInterval = 30 * time.Second

func main() {
	logger.Init()
	defer logger.Log.Sync()

	cfg := config.Load()

	db := database.Connect(cfg)
	defer db.Close()

	presenceCache, err := presence.NewCache(cfg.RedisURL, presence.DefaultTTL)
	if err != nil {
		logger.Sugar.Warnf("Presence disabled, redis unavailable: %v", err)
		presenceCache = nil
	}

	hub := socket.NewHub(&socket.PostgresStore{DB: db}, presenceCache)
	go hub.Run()
	go hub.FlushWorker(flushInterval)

	insertions := bridge.NewInsertionBridge()
	assistantSvc := assistant.NewService(cfg.OpenAIAPIKey, insertions)

	handler := router.Setup(db, hub, assistantSvc)

	logger.Sugar.Infof("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
}
