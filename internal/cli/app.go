// Package cli implements the operator commands of quiz-admin.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"quizzly/internal/quiz"
)

type Catalog interface {
	SeedQuiz(ctx context.Context, req quiz.NewQuiz) (quiz.QuizMetadata, error)
	ListQuizzes(ctx context.Context, limit int) ([]quiz.QuizSummary, error)
}

type TokenIssuer interface {
	Issue(profile quiz.UserProfile, ttl time.Duration) (string, error)
}

type Deps struct {
	Catalog Catalog
	Issuer  TokenIssuer
}

var ErrUsage = errors.New("usage: quiz-admin <seed|list|token> [flags]")

func Run(ctx context.Context, args []string, out io.Writer, deps Deps) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch strings.ToLower(args[0]) {
	case "seed":
		return runSeed(ctx, args[1:], out, deps.Catalog)
	case "list":
		return runList(ctx, args[1:], out, deps.Catalog)
	case "token":
		return runToken(args[1:], out, deps.Issuer)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func runSeed(ctx context.Context, args []string, out io.Writer, catalog Catalog) error {
	if catalog == nil {
		return errors.New("seed needs a quiz store")
	}

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(out)
	id := fs.String("id", "", "quiz id (generated when empty)")
	title := fs.String("title", "", "quiz title")
	description := fs.String("description", "", "quiz description")
	subject := fs.String("subject", "", "quiz subject")
	duration := fs.Int("duration", 0, "time limit in seconds")
	count := fs.Int("count", 10, "number of questions to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be positive")
	}

	metadata, err := catalog.SeedQuiz(ctx, quiz.NewQuiz{
		QuizID:        *id,
		Title:         *title,
		Description:   *description,
		Subject:       *subject,
		DurationSec:   *duration,
		QuestionCount: *count,
	})
	if err != nil {
		return fmt.Errorf("seed quiz: %w", err)
	}

	fmt.Fprintf(out, "created quiz %s: %q, %d questions, %ds\n",
		metadata.QuizID,
		metadata.Title,
		metadata.QuestionCount,
		metadata.DurationSec,
	)
	return nil
}

func runList(ctx context.Context, args []string, out io.Writer, catalog Catalog) error {
	if catalog == nil {
		return errors.New("list needs a quiz store")
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	limit := fs.Int("limit", 50, "maximum quizzes to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := catalog.ListQuizzes(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No quizzes.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(out, "%s\t%s\t%d questions\t%ds\n", item.ID, item.Title, item.QuestionCount, item.Duration)
	}
	return nil
}

func runToken(args []string, out io.Writer, issuer TokenIssuer) error {
	if issuer == nil {
		return errors.New("token needs JWT_SECRET")
	}

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "account username (required)")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	ttl := fs.Duration("ttl", 0, "token lifetime (default 30 days)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return errors.New("--username is required")
	}

	displayName := strings.TrimSpace(*name)
	if displayName == "" {
		displayName = *username
	}
	token, err := issuer.Issue(quiz.UserProfile{
		Username: strings.TrimSpace(*username),
		Name:     displayName,
		Email:    strings.TrimSpace(*email),
	}, *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(out, token)
	return nil
}
