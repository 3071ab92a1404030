package quiz

import (
	"context"
	"errors"
	"testing"

	"quizzly/internal/opentdb"
)

type fakeQuizRepo struct {
	metadataByQuiz  map[string]QuizMetadata
	questionsByQuiz map[string][]StoredQuestion

	createCalls       int
	getMetadataCalls  int
	getQuestionsCalls int
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{
		metadataByQuiz:  make(map[string]QuizMetadata),
		questionsByQuiz: make(map[string][]StoredQuestion),
	}
}

func (f *fakeQuizRepo) CreateQuiz(_ context.Context, metadata QuizMetadata, questions []StoredQuestion) error {
	f.createCalls++
	f.metadataByQuiz[metadata.QuizID] = metadata
	f.questionsByQuiz[metadata.QuizID] = questions
	return nil
}

func (f *fakeQuizRepo) GetQuizMetadata(_ context.Context, quizID string) (QuizMetadata, error) {
	f.getMetadataCalls++
	item, ok := f.metadataByQuiz[quizID]
	if !ok {
		return QuizMetadata{}, ErrQuizNotFound
	}
	return item, nil
}

func (f *fakeQuizRepo) GetQuizQuestions(_ context.Context, quizID string) ([]StoredQuestion, error) {
	f.getQuestionsCalls++
	items, ok := f.questionsByQuiz[quizID]
	if !ok {
		return nil, ErrQuizNotFound
	}
	return items, nil
}

func (f *fakeQuizRepo) ListQuizzes(_ context.Context, limit int) ([]QuizMetadata, error) {
	out := make([]QuizMetadata, 0, len(f.metadataByQuiz))
	for _, item := range f.metadataByQuiz {
		out = append(out, item)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProfileRepo struct {
	profiles map[string]UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]UserProfile)}
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, profile UserProfile) (UserProfile, error) {
	f.profiles[profile.Username] = profile
	return profile, nil
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, username string) (UserProfile, error) {
	profile, ok := f.profiles[username]
	if !ok {
		return UserProfile{}, ErrProfileNotFound
	}
	return profile, nil
}

type fakeSubmissionRepo struct {
	recorded []Submission
	err      error
}

func (f *fakeSubmissionRepo) RecordSubmission(_ context.Context, _ string, submission Submission) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, submission)
	return nil
}

func newTestService(fetcher QuestionsFetcher) (*Service, *fakeQuizRepo, *fakeProfileRepo, *fakeSubmissionRepo) {
	quizzes := newFakeQuizRepo()
	profiles := newFakeProfileRepo()
	submissions := &fakeSubmissionRepo{}
	return NewService(quizzes, profiles, submissions, fetcher), quizzes, profiles, submissions
}

func seedFakeQuiz(repo *fakeQuizRepo) {
	repo.metadataByQuiz["quiz-1"] = QuizMetadata{QuizID: "quiz-1", Title: "Basics", Subject: "Math", DurationSec: 60, QuestionCount: 3}
	repo.questionsByQuiz["quiz-1"] = sampleQuestions()
}

func TestGetQuizHidesAnswerKeyAndCaches(t *testing.T) {
	service, repo, _, _ := newTestService(nil)
	seedFakeQuiz(repo)
	ctx := context.Background()

	got, err := service.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if got.Title != "Basics" || got.Duration != 60 || len(got.Questions) != 3 {
		t.Fatalf("unexpected quiz: %+v", got)
	}

	if _, err := service.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("second GetQuiz failed: %v", err)
	}
	if repo.getQuestionsCalls != 1 {
		t.Fatalf("expected quiz questions to be read once, got %d", repo.getQuestionsCalls)
	}
}

func TestGetQuizUnknown(t *testing.T) {
	service, _, _, _ := newTestService(nil)
	if _, err := service.GetQuiz(context.Background(), "missing"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := service.GetQuiz(context.Background(), "  "); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for blank id, got %v", err)
	}
}

func TestSubmitGradesAndRecords(t *testing.T) {
	service, repo, _, submissions := newTestService(nil)
	seedFakeQuiz(repo)

	result, err := service.Submit(context.Background(), "quiz-1", " Alice ", AnswerMap{"q1": "4", "q2": "Blue", "q3": "Rome"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Correct != 2 || result.Wrong != 1 || result.NotAttempted != 0 || result.Total != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Score != 2*PointsPerCorrect {
		t.Fatalf("score = %d", result.Score)
	}
	if len(submissions.recorded) != 1 {
		t.Fatalf("expected one recorded submission, got %d", len(submissions.recorded))
	}
	if submissions.recorded[0].Username != "alice" || submissions.recorded[0].SubmissionID == "" {
		t.Fatalf("unexpected submission: %+v", submissions.recorded[0])
	}
}

func TestSubmitRejectsGuest(t *testing.T) {
	service, repo, _, _ := newTestService(nil)
	seedFakeQuiz(repo)

	if _, err := service.Submit(context.Background(), "quiz-1", "Guest", AnswerMap{}); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestSubmitPropagatesRepositoryError(t *testing.T) {
	service, repo, _, submissions := newTestService(nil)
	seedFakeQuiz(repo)
	submissions.err = errors.New("disk full")

	if _, err := service.Submit(context.Background(), "quiz-1", "alice", AnswerMap{}); err == nil {
		t.Fatalf("expected repository error")
	}
}

func TestResolveProfileCreatesOnce(t *testing.T) {
	service, _, profiles, _ := newTestService(nil)
	ctx := context.Background()

	created, err := service.ResolveProfile(ctx, UserProfile{Username: "Bob", Email: "bob@example.com", Score: 99})
	if err != nil {
		t.Fatalf("ResolveProfile failed: %v", err)
	}
	if created.Username != "bob" || created.Name != "bob" || created.Score != 0 {
		t.Fatalf("unexpected created profile: %+v", created)
	}

	profiles.profiles["bob"] = UserProfile{Name: "Bob", Username: "bob", Score: 40}
	existing, err := service.ResolveProfile(ctx, UserProfile{Username: "bob"})
	if err != nil {
		t.Fatalf("ResolveProfile failed: %v", err)
	}
	if existing.Score != 40 {
		t.Fatalf("expected stored profile, got %+v", existing)
	}
}

func TestSeedQuizUsesFetcherAndDefaults(t *testing.T) {
	requested := 0
	fetcher := func(_ context.Context, amount int) ([]opentdb.RawQuestion, error) {
		requested = amount
		return []opentdb.RawQuestion{
			{Question: "Q1", CorrectAnswer: "A", IncorrectAnswers: []string{"B"}},
			{Question: "Q2", CorrectAnswer: "C", IncorrectAnswers: []string{"D"}},
		}, nil
	}
	service, repo, _, _ := newTestService(fetcher)

	metadata, err := service.SeedQuiz(context.Background(), NewQuiz{QuestionCount: 2, Subject: "Trivia"})
	if err != nil {
		t.Fatalf("SeedQuiz failed: %v", err)
	}
	if requested != 2 {
		t.Fatalf("fetcher amount = %d, want 2", requested)
	}
	if metadata.QuestionCount != 2 || metadata.DurationSec != defaultDurationSec {
		t.Fatalf("unexpected metadata: %+v", metadata)
	}
	if len(metadata.QuizID) != len("qz_")+10 {
		t.Fatalf("unexpected generated quiz id %q", metadata.QuizID)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected CreateQuiz once, got %d", repo.createCalls)
	}
}

func TestSeedQuizWithoutFetcher(t *testing.T) {
	service, _, _, _ := newTestService(nil)
	if _, err := service.SeedQuiz(context.Background(), NewQuiz{}); err == nil {
		t.Fatalf("expected error without fetcher")
	}
}
