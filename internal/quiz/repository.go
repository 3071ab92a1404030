package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrInvalidUsername = errors.New("invalid username")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// QuizMetadata is the stored header of a quiz.
type QuizMetadata struct {
	QuizID        string
	Title         string
	Description   string
	Subject       string
	DurationSec   int
	QuestionCount int
	CreatedAt     time.Time
}

func (m QuizMetadata) Summary() QuizSummary {
	return QuizSummary{
		ID:            m.QuizID,
		Title:         m.Title,
		Description:   m.Description,
		Subject:       m.Subject,
		Duration:      m.DurationSec,
		QuestionCount: m.QuestionCount,
	}
}

// Submission is one graded attempt as persisted by the service.
type Submission struct {
	SubmissionID string
	Username     string
	Answers      AnswerMap
	Result       SubmissionResult
	SubmittedAt  time.Time
}

type QuizRepository interface {
	CreateQuiz(ctx context.Context, metadata QuizMetadata, questions []StoredQuestion) error
	GetQuizMetadata(ctx context.Context, quizID string) (QuizMetadata, error)
	GetQuizQuestions(ctx context.Context, quizID string) ([]StoredQuestion, error)
	ListQuizzes(ctx context.Context, limit int) ([]QuizMetadata, error)
}

type ProfileRepository interface {
	UpsertProfile(ctx context.Context, profile UserProfile) (UserProfile, error)
	GetProfile(ctx context.Context, username string) (UserProfile, error)
}

type SubmissionRepository interface {
	// RecordSubmission stores the attempt and adds its score to the user's
	// profile atomically.
	RecordSubmission(ctx context.Context, quizID string, submission Submission) error
}
