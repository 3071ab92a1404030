package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizzly/internal/opentdb"
)

// PointsPerCorrect is what one correct answer adds to a submission score.
const PointsPerCorrect = 10

const defaultDurationSec = 300

type QuestionsFetcher func(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)

type Service struct {
	quizzes     QuizRepository
	profiles    ProfileRepository
	submissions SubmissionRepository
	fetcher     QuestionsFetcher

	mu        sync.RWMutex
	quizCache map[string]cachedQuiz
}

// NewQuiz describes a quiz to seed from the question fetcher.
type NewQuiz struct {
	QuizID        string
	Title         string
	Description   string
	Subject       string
	DurationSec   int
	QuestionCount int
}

func NewService(quizzes QuizRepository, profiles ProfileRepository, submissions SubmissionRepository, fetcher QuestionsFetcher) *Service {
	return &Service{
		quizzes:     quizzes,
		profiles:    profiles,
		submissions: submissions,
		fetcher:     fetcher,
		quizCache:   make(map[string]cachedQuiz),
	}
}

func (s *Service) ListQuizzes(ctx context.Context, limit int) ([]QuizSummary, error) {
	items, err := s.quizzes.ListQuizzes(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, item.Summary())
	}
	return summaries, nil
}

// GetQuiz returns the public view of a quiz: no answer key.
func (s *Service) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	metadata, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	return Quiz{
		ID:          metadata.QuizID,
		Title:       metadata.Title,
		Description: metadata.Description,
		Subject:     metadata.Subject,
		Duration:    metadata.DurationSec,
		Questions:   PublicQuestions(questions),
	}, nil
}

// Submit grades an attempt and credits the score to the user's profile.
func (s *Service) Submit(ctx context.Context, quizID, username string, answers AnswerMap) (SubmissionResult, error) {
	usernameNormalized, err := normalizeUsername(username)
	if err != nil {
		return SubmissionResult{}, err
	}

	metadata, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return SubmissionResult{}, err
	}

	result := Grade(metadata.QuizID, questions, answers)
	submission := Submission{
		SubmissionID: uuid.NewString(),
		Username:     usernameNormalized,
		Answers:      answers.Clone(),
		Result:       result,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.submissions.RecordSubmission(ctx, metadata.QuizID, submission); err != nil {
		return SubmissionResult{}, err
	}
	return result, nil
}

// ResolveProfile returns the stored profile for a user, creating it from the
// identity carried by the credential on first sight.
func (s *Service) ResolveProfile(ctx context.Context, identity UserProfile) (UserProfile, error) {
	usernameNormalized, err := normalizeUsername(identity.Username)
	if err != nil {
		return UserProfile{}, err
	}

	profile, err := s.profiles.GetProfile(ctx, usernameNormalized)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return UserProfile{}, err
	}

	identity.Username = usernameNormalized
	if strings.TrimSpace(identity.Name) == "" {
		identity.Name = usernameNormalized
	}
	identity.Score = 0
	return s.profiles.UpsertProfile(ctx, identity)
}

// SeedQuiz fetches questions and stores a new quiz. A blank id gets a
// generated one.
func (s *Service) SeedQuiz(ctx context.Context, req NewQuiz) (QuizMetadata, error) {
	if s.fetcher == nil {
		return QuizMetadata{}, errors.New("question fetcher is not configured")
	}

	quizID := strings.TrimSpace(req.QuizID)
	if quizID == "" {
		quizID = generateQuizID()
	}

	rawQuestions, err := s.fetcher(ctx, req.QuestionCount)
	if err != nil {
		return QuizMetadata{}, err
	}
	questions := BuildQuestions(rawQuestions)
	if len(questions) == 0 {
		return QuizMetadata{}, errors.New("question fetcher returned no questions")
	}

	duration := req.DurationSec
	if duration <= 0 {
		duration = defaultDurationSec
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Quiz " + quizID
	}

	metadata := QuizMetadata{
		QuizID:        quizID,
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		Subject:       strings.TrimSpace(req.Subject),
		DurationSec:   duration,
		QuestionCount: len(questions),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.quizzes.CreateQuiz(ctx, metadata, questions); err != nil {
		return QuizMetadata{}, err
	}
	s.forgetQuiz(quizID)
	return metadata, nil
}

func (s *Service) loadQuiz(ctx context.Context, quizID string) (QuizMetadata, []StoredQuestion, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return QuizMetadata{}, nil, ErrQuizNotFound
	}
	if metadata, questions, ok := s.getCachedQuiz(quizID); ok {
		return metadata, questions, nil
	}

	metadata, err := s.quizzes.GetQuizMetadata(ctx, quizID)
	if err != nil {
		return QuizMetadata{}, nil, err
	}
	questions, err := s.quizzes.GetQuizQuestions(ctx, quizID)
	if err != nil {
		return QuizMetadata{}, nil, err
	}

	s.setCachedQuiz(metadata, questions)
	return metadata, questions, nil
}

func normalizeUsername(username string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))
	if normalized == "" || normalized == strings.ToLower(GuestName) {
		return "", ErrInvalidUsername
	}
	return normalized, nil
}

func generateQuizID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	const length = 10

	var builder strings.Builder
	builder.Grow(len("qz_") + length)
	builder.WriteString("qz_")
	for idx := 0; idx < length; idx++ {
		builder.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return builder.String()
}
