package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizzly/internal/auth"
	"quizzly/internal/config"
	"quizzly/internal/httpapi"
	"quizzly/internal/logger"
	"quizzly/internal/opentdb"
	"quizzly/internal/quiz"
	"quizzly/internal/quiz/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	addr := flag.String("addr", "", "HTTP listen address (default $ADDR or :8080)")
	dbPath := flag.String("db", "", "SQLite database path (default $QUIZ_DB_PATH or quiz.db)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "error: load env:", err)
		os.Exit(1)
	}
	cfg := config.LoadService()
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	authenticator, err := auth.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		log.Fatal("JWT_SECRET is required", "error", err)
	}

	store, err := sqlite.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal("open quiz store", "path", cfg.DBPath, "error", err)
	}
	defer store.Close()

	fetcher := opentdb.NewClient(&http.Client{Timeout: 10 * time.Second})
	service := quiz.NewService(store, store, store, fetcher.FetchQuestions)
	api := httpapi.NewAPI(service, authenticator, httpapi.NewHub(log), log)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("quiz-service listening", "addr", cfg.Addr, "db", cfg.DBPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", "error", err)
	}
}
