package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindconnect/chat-service/config"
	"github.com/mindconnect/chat-service/internal/alert"
	"github.com/mindconnect/chat-service/internal/assistant"
	"github.com/mindconnect/chat-service/internal/crisis"
	"github.com/mindconnect/chat-service/internal/postgres"
	"github.com/mindconnect/chat-service/internal/realtime"
	"github.com/mindconnect/chat-service/internal/registry"
	"github.com/mindconnect/chat-service/internal/service"
	httpx "github.com/mindconnect/chat-service/internal/transport/http"
	"github.com/mindconnect/chat-service/internal/transport/ws"
	"github.com/mindconnect/chat-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg := logger.L()
	lg.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	convRepo := postgres.NewConversationRepository(db.Pool)

	// --- crisis gate ---
	gate, err := crisis.NewGate(crisis.DefaultPhrases)
	if err != nil {
		log.Fatalf("crisis gate: %v", err)
	}

	// --- realtime core ---
	reg := registry.New()
	rooms := realtime.NewManager(roomRepo, msgRepo)
	defer rooms.Close()
	reg.Bind(rooms)

	pipeline := realtime.NewPipeline(rooms, msgRepo, gate, alert.LogNotifier{})

	// --- services ---
	roomSvc := service.NewRoomService(roomRepo)
	historySvc := service.NewHistoryService(msgRepo)
	assistantSvc := assistant.NewService(convRepo, gate, assistant.StaticResponder{})

	// --- transports ---
	wsServer := ws.NewServer(reg, rooms, pipeline, historySvc, userRepo)
	handler := httpx.NewHandler(roomSvc, historySvc, assistantSvc, msgRepo)
	router := httpx.NewRouter(handler, userRepo, wsServer)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		lg.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	lg.Info("stopped")
}
