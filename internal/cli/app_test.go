package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quizzly/internal/quiz"
)

type fakeCatalog struct {
	seeded []quiz.NewQuiz
	items  []quiz.QuizSummary
}

func (f *fakeCatalog) SeedQuiz(_ context.Context, req quiz.NewQuiz) (quiz.QuizMetadata, error) {
	f.seeded = append(f.seeded, req)
	return quiz.QuizMetadata{QuizID: "qz_1", Title: req.Title, QuestionCount: req.QuestionCount, DurationSec: 300}, nil
}

func (f *fakeCatalog) ListQuizzes(context.Context, int) ([]quiz.QuizSummary, error) {
	return f.items, nil
}

type fakeIssuer struct {
	profile quiz.UserProfile
	ttl     time.Duration
}

func (f *fakeIssuer) Issue(profile quiz.UserProfile, ttl time.Duration) (string, error) {
	f.profile = profile
	f.ttl = ttl
	return "signed-token", nil
}

func TestRunRequiresCommand(t *testing.T) {
	if err := Run(context.Background(), nil, &bytes.Buffer{}, Deps{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
	if err := Run(context.Background(), []string{"bogus"}, &bytes.Buffer{}, Deps{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestRunSeed(t *testing.T) {
	catalog := &fakeCatalog{}
	var out bytes.Buffer

	err := Run(context.Background(), []string{"seed", "-title", "Warmup", "-subject", "Science", "-count", "5"}, &out, Deps{Catalog: catalog})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if len(catalog.seeded) != 1 || catalog.seeded[0].QuestionCount != 5 || catalog.seeded[0].Subject != "Science" {
		t.Fatalf("unexpected seed request: %+v", catalog.seeded)
	}
	if !strings.Contains(out.String(), "created quiz qz_1") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	if err := Run(context.Background(), []string{"seed", "-count", "0"}, &out, Deps{Catalog: catalog}); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestRunList(t *testing.T) {
	catalog := &fakeCatalog{items: []quiz.QuizSummary{{ID: "42", Title: "Capitals", QuestionCount: 2, Duration: 60}}}
	var out bytes.Buffer

	if err := Run(context.Background(), []string{"list"}, &out, Deps{Catalog: catalog}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "42\tCapitals\t2 questions\t60s") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunToken(t *testing.T) {
	issuer := &fakeIssuer{}
	var out bytes.Buffer

	err := Run(context.Background(), []string{"token", "-username", "alice", "-ttl", "1h"}, &out, Deps{Issuer: issuer})
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "signed-token" {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if issuer.profile.Username != "alice" || issuer.profile.Name != "alice" || issuer.ttl != time.Hour {
		t.Fatalf("unexpected issue request: %+v %v", issuer.profile, issuer.ttl)
	}

	if err := Run(context.Background(), []string{"token"}, &out, Deps{Issuer: issuer}); err == nil {
		t.Fatalf("expected error without username")
	}
}
