package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"quizzly/internal/auth"
	"quizzly/internal/cli"
	"quizzly/internal/config"
	"quizzly/internal/opentdb"
	"quizzly/internal/quiz"
	"quizzly/internal/quiz/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	dbPath := flag.String("db", "", "SQLite database path (default $QUIZ_DB_PATH or quiz.db)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), cli.ErrUsage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "error: load env:", err)
		os.Exit(1)
	}
	cfg := config.LoadService()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	var deps cli.Deps
	args := flag.Args()

	if len(args) > 0 && strings.EqualFold(args[0], "token") {
		authenticator, err := auth.NewAuthenticator(cfg.JWTSecret)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		deps.Issuer = authenticator
	} else if len(args) > 0 {
		store, err := sqlite.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: open quiz store:", err)
			os.Exit(1)
		}
		defer store.Close()

		fetcher := opentdb.NewClient(&http.Client{Timeout: 10 * time.Second})
		deps.Catalog = quiz.NewService(store, store, store, fetcher.FetchQuestions)
	}

	if err := cli.Run(context.Background(), args, os.Stdout, deps); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
