package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"quizzly/internal/config"
	"quizzly/internal/credentials"
	"quizzly/internal/logger"
	"quizzly/internal/realtime"
	"quizzly/internal/sessioncache"
	"quizzly/internal/userclient"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	server := flag.String("server", "", "quiz service base URL (default $QUIZZLY_SERVER)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "error: load env:", err)
		os.Exit(1)
	}
	cfg := config.LoadClient()
	if *server != "" {
		cfg.ServerURL = *server
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := credentials.Open(ctx, cfg.CredentialsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open credentials:", err)
		os.Exit(1)
	}
	defer creds.Close()

	cache, clearSession, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	notifier := openNotifier(ctx, cfg, creds, log)
	defer notifier.close()

	err = userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		ServerURL:          cfg.ServerURL,
		HTTPTimeout:        cfg.HTTPTimeout,
		DisplayDelay:       cfg.DisplayDelay,
		Cache:              cache,
		Credentials:        creds,
		Notifier:           notifier.Notifier,
		ClearSession:       clearSession,
		CredentialsChanged: notifier.reconnect,
		Logger:             log,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openCache falls back to the in-memory store when Redis is unreachable.
func openCache(ctx context.Context, cfg config.ClientConfig, log *logger.Logger) (sessioncache.Store, func() error, func()) {
	if cfg.Cache == config.CacheRedis {
		store, err := sessioncache.NewRedisStore(ctx, sessioncache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err == nil {
			return store, store.Clear, func() { _ = store.Close() }
		}
		log.Warn("redis cache unavailable, using memory", "addr", cfg.Redis.Addr, "error", err)
	}

	store := sessioncache.NewMemoryStore()
	return store, func() error { store.Clear(); return nil }, store.Clear
}

type notifiers struct {
	realtime.Notifier
	closers []func() error
	ws      *realtime.WSNotifier
	creds   *credentials.Store
	log     *logger.Logger
}

// reconnect reopens the socket with the current credential after login or
// logout.
func (n notifiers) reconnect(ctx context.Context) {
	if n.ws == nil {
		return
	}
	if err := n.ws.Connect(ctx, bearerHeader(n.creds)); err != nil {
		n.log.Warn("realtime socket unavailable", "error", err)
	}
}

func bearerHeader(creds *credentials.Store) http.Header {
	header := http.Header{}
	if token, ok := creds.Token(); ok {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

func (n notifiers) close() {
	for _, c := range n.closers {
		_ = c()
	}
}

// openNotifier connects every configured event channel. A channel that
// cannot connect is skipped; submission events are best effort.
func openNotifier(ctx context.Context, cfg config.ClientConfig, creds *credentials.Store, log *logger.Logger) notifiers {
	var (
		multi   realtime.Multi
		closers []func() error
		ws      *realtime.WSNotifier
	)

	if cfg.RealtimeURL != "" {
		ws = realtime.NewWSNotifier(cfg.RealtimeURL, log)
		if err := ws.Connect(ctx, bearerHeader(creds)); err != nil {
			log.Warn("realtime socket unavailable", "error", err)
		}
		multi = append(multi, ws)
		closers = append(closers, ws.Close)
	}

	if cfg.AMQPURL != "" {
		publisher, err := realtime.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Warn("event broker unavailable", "error", err)
		} else {
			multi = append(multi, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	if len(multi) == 0 {
		return notifiers{Notifier: realtime.Nop{}}
	}
	return notifiers{Notifier: multi, closers: closers, ws: ws, creds: creds, log: log}
}
