package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quizzly/internal/quiz"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func sampleQuestions() []quiz.StoredQuestion {
	return []quiz.StoredQuestion{
		{
			Question:      quiz.Question{ID: "q1", Text: "2+2?", Options: []string{"4", "3"}},
			CorrectOption: "4",
		},
		{
			Question:      quiz.Question{ID: "q2", Text: "Sky color?", Options: []string{"Green", "Blue"}},
			CorrectOption: "Blue",
		},
	}
}

func sampleMetadata(createdAt time.Time) quiz.QuizMetadata {
	return quiz.QuizMetadata{
		QuizID:        "quiz-1",
		Title:         "Warmup",
		Description:   "Two easy ones",
		Subject:       "General",
		DurationSec:   90,
		QuestionCount: 2,
		CreatedAt:     createdAt,
	}
}

func TestSQLiteStoreCreateAndReadQuiz(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	createdAt := time.Unix(1700000000, 123).UTC()
	if err := store.CreateQuiz(ctx, sampleMetadata(createdAt), sampleQuestions()); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	gotMeta, err := store.GetQuizMetadata(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuizMetadata failed: %v", err)
	}
	if gotMeta.Title != "Warmup" || gotMeta.DurationSec != 90 || gotMeta.QuestionCount != 2 || !gotMeta.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected metadata: %+v", gotMeta)
	}

	gotQuestions, err := store.GetQuizQuestions(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuizQuestions failed: %v", err)
	}
	if len(gotQuestions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(gotQuestions))
	}
	if gotQuestions[0].ID != "q1" || gotQuestions[1].ID != "q2" {
		t.Fatalf("question order not preserved: %+v", gotQuestions)
	}
	if gotQuestions[1].Options[0] != "Green" || gotQuestions[1].Options[1] != "Blue" {
		t.Fatalf("option order not preserved: %+v", gotQuestions[1].Options)
	}
	if gotQuestions[1].CorrectOption != "Blue" {
		t.Fatalf("correct option = %q", gotQuestions[1].CorrectOption)
	}
}

func TestSQLiteStoreMissingQuiz(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.GetQuizMetadata(ctx, "nope"); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := store.GetQuizQuestions(ctx, "nope"); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestSQLiteStoreListQuizzesNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	older := sampleMetadata(time.Unix(1700000000, 0).UTC())
	newer := sampleMetadata(time.Unix(1800000000, 0).UTC())
	newer.QuizID = "quiz-2"
	if err := store.CreateQuiz(ctx, older, sampleQuestions()); err != nil {
		t.Fatalf("CreateQuiz older failed: %v", err)
	}
	if err := store.CreateQuiz(ctx, newer, sampleQuestions()[:1]); err != nil {
		t.Fatalf("CreateQuiz newer failed: %v", err)
	}

	items, err := store.ListQuizzes(ctx, 10)
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(items) != 2 || items[0].QuizID != "quiz-2" || items[1].QuizID != "quiz-1" {
		t.Fatalf("unexpected list order: %+v", items)
	}

	limited, err := store.ListQuizzes(ctx, 1)
	if err != nil {
		t.Fatalf("ListQuizzes limited failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 item with limit, got %d", len(limited))
	}
}

func TestSQLiteStoreRecordSubmissionCreditsProfile(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.UpsertProfile(ctx, quiz.UserProfile{Username: "alice", Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	for idx, score := range []int{20, 10} {
		submission := quiz.Submission{
			SubmissionID: []string{"s1", "s2"}[idx],
			Username:     "alice",
			Answers:      quiz.AnswerMap{"q1": "4"},
			Result:       quiz.SubmissionResult{Score: score, Correct: score / 10, Wrong: 2 - score/10, Total: 2, QuizID: "quiz-1"},
			SubmittedAt:  time.Unix(int64(1700000000+idx), 0).UTC(),
		}
		if err := store.RecordSubmission(ctx, "quiz-1", submission); err != nil {
			t.Fatalf("RecordSubmission failed: %v", err)
		}
	}

	profile, err := store.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Score != 30 || profile.Name != "Alice" || profile.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	submissions, err := store.ListSubmissions(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(submissions) != 2 || submissions[0].SubmissionID != "s2" {
		t.Fatalf("unexpected submissions: %+v", submissions)
	}
	if submissions[1].Answers["q1"] != "4" || submissions[1].Result.QuizID != "quiz-1" {
		t.Fatalf("unexpected first submission: %+v", submissions[1])
	}
}

func TestSQLiteStoreRecordSubmissionWithoutProfile(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	err := store.RecordSubmission(ctx, "quiz-1", quiz.Submission{
		SubmissionID: "s1",
		Username:     "bob",
		Answers:      quiz.AnswerMap{},
		Result:       quiz.SubmissionResult{Score: 10, Correct: 1, Total: 1},
	})
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	profile, err := store.GetProfile(ctx, "bob")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Score != 10 || profile.Name != "bob" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestSQLiteStoreProfileNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	if _, err := store.GetProfile(context.Background(), "ghost"); !errors.Is(err, quiz.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
