// Package quizsession drives one quiz attempt: it shows cached data at once,
// revalidates it, keeps the answer map, runs the countdown and submits the
// attempt exactly once.
package quizsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quizzly/internal/countdown"
	"quizzly/internal/handoff"
	"quizzly/internal/logger"
	"quizzly/internal/quiz"
	"quizzly/internal/realtime"
	"quizzly/internal/revalidate"
	"quizzly/internal/sessioncache"
)

const (
	DefaultDisplayDelay  = 2 * time.Second
	DefaultSubmitTimeout = 10 * time.Second
	notifyTimeout        = 2 * time.Second
)

var (
	ErrUnauthorized    = quiz.ErrUnauthorized
	ErrQuizUnavailable = errors.New("quiz unavailable")
	ErrNoQuiz          = errors.New("no quiz loaded")
	ErrAttemptClosed   = errors.New("attempt already submitted")
	ErrClosed          = errors.New("session closed")
)

// SubmissionError reports a failed submit. The answers are kept and the
// attempt may be submitted again.
type SubmissionError struct {
	QuizID string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit quiz %s: %v", e.QuizID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Remote is the quiz service as seen by a session.
type Remote interface {
	GetProfile(ctx context.Context) (quiz.UserProfile, error)
	GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error)
	Submit(ctx context.Context, quizID string, answers quiz.AnswerMap) (quiz.SubmissionResult, error)
}

type Credentials interface {
	Token() (string, bool)
}

type Config struct {
	QuizID      string
	Remote      Remote
	Fetcher     *revalidate.Fetcher
	Credentials Credentials
	Notifier    realtime.Notifier

	// Navigate receives the finished attempt after DisplayDelay.
	Navigate     func(handoff.State)
	DisplayDelay time.Duration

	// OnQuiz and OnProfile are called whenever the displayed value changes;
	// cached is true for values read from the session cache.
	OnQuiz    func(q quiz.Quiz, cached bool)
	OnProfile func(p quiz.UserProfile, cached bool)
	// OnTick and OnExpire observe the countdown.
	OnTick   func(remaining time.Duration)
	OnExpire func(result *quiz.SubmissionResult, err error)

	TimerTick     time.Duration
	SubmitTimeout time.Duration
	Logger        *logger.Logger
}

type Controller struct {
	cfg   Config
	log   *logger.Logger
	timer *countdown.Timer

	mu      sync.Mutex
	quiz    quiz.Quiz
	hasQuiz bool
	profile quiz.UserProfile
	started bool
	index   int
	answers quiz.AnswerMap
	state   SubmissionState
	result  *quiz.SubmissionResult
	nav     *time.Timer
	closed  bool
}

func New(cfg Config) *Controller {
	if cfg.DisplayDelay <= 0 {
		cfg.DisplayDelay = DefaultDisplayDelay
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.Notifier == nil {
		cfg.Notifier = realtime.Nop{}
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = revalidate.New(sessioncache.NewMemoryStore(), cfg.Logger)
	}

	return &Controller{
		cfg:     cfg,
		log:     logger.OrNop(cfg.Logger).With("component", "quizsession", "quiz_id", cfg.QuizID),
		timer:   countdown.New(countdown.WithTick(cfg.TimerTick), countdown.WithOnTick(cfg.OnTick)),
		profile: quiz.GuestProfile(),
		answers: quiz.AnswerMap{},
		state:   NotSubmitted,
	}
}

func (c *Controller) hasCredential() bool {
	if c.cfg.Credentials == nil {
		return false
	}
	_, ok := c.cfg.Credentials.Token()
	return ok
}

// Mount shows cached profile and quiz immediately, then revalidates both
// concurrently and waits for them. A profile failure leaves the Guest (or
// cached) profile. A quiz failure is only an error when nothing was cached.
func (c *Controller) Mount(ctx context.Context) error {
	var profileResult *revalidate.Result[quiz.UserProfile]
	if c.hasCredential() {
		profileResult = revalidate.Load(ctx, c.cfg.Fetcher, sessioncache.KeyUser, c.cfg.Remote.GetProfile)
		if profileResult.HasInitial {
			c.setProfile(profileResult.Initial, true)
		}
	} else {
		c.setProfile(quiz.GuestProfile(), false)
	}

	quizResult := revalidate.Load(ctx, c.cfg.Fetcher, sessioncache.QuizKey(c.cfg.QuizID), func(ctx context.Context) (quiz.Quiz, error) {
		return c.cfg.Remote.GetQuiz(ctx, c.cfg.QuizID)
	})
	if quizResult.HasInitial {
		c.setQuiz(quizResult.Initial, true)
	}

	g, gctx := errgroup.WithContext(ctx)
	if profileResult != nil {
		g.Go(func() error {
			profile, err := profileResult.Settled(gctx)
			if err != nil {
				c.log.Debug("profile unavailable", "error", err)
				if !profileResult.HasInitial {
					c.setProfile(quiz.GuestProfile(), false)
				}
				return nil
			}
			c.setProfile(profile, false)
			return nil
		})
	}
	g.Go(func() error {
		fresh, err := quizResult.Settled(gctx)
		if err != nil {
			if quizResult.HasInitial {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
		}
		c.setQuiz(fresh, false)
		return nil
	})
	return g.Wait()
}

func (c *Controller) setProfile(profile quiz.UserProfile, cached bool) {
	c.mu.Lock()
	c.profile = profile
	c.mu.Unlock()

	if c.cfg.OnProfile != nil {
		c.cfg.OnProfile(profile, cached)
	}
}

// setQuiz replaces the displayed quiz unless an attempt is already running
// against the previous one.
func (c *Controller) setQuiz(q quiz.Quiz, cached bool) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.log.Debug("attempt in progress, keeping displayed quiz")
		return
	}
	c.quiz = q
	c.hasQuiz = true
	if c.index >= len(q.Questions) {
		c.index = 0
	}
	c.mu.Unlock()

	if c.cfg.OnQuiz != nil {
		c.cfg.OnQuiz(q.Clone(), cached)
	}
}

// Start freezes the displayed quiz and starts its countdown. When the
// countdown expires the attempt is submitted.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.hasQuiz {
		c.mu.Unlock()
		return ErrNoQuiz
	}
	if c.started {
		c.mu.Unlock()
		return countdown.ErrAlreadyStarted
	}
	c.quiz = c.quiz.Clone()
	c.started = true
	c.index = 0
	duration := time.Duration(c.quiz.Duration) * time.Second
	c.mu.Unlock()

	return c.timer.Start(duration, c.expire)
}

func (c *Controller) expire() {
	c.log.Info("time is up, submitting")
	result, err := c.Submit(context.Background())
	if err != nil {
		c.log.Warn("automatic submit failed", "error", err)
	}
	if c.cfg.OnExpire != nil {
		c.cfg.OnExpire(result, err)
	}
}

// SelectAnswer records option for questionID, replacing any earlier choice.
func (c *Controller) SelectAnswer(questionID, option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Submitted {
		return ErrAttemptClosed
	}
	c.answers[questionID] = option
	return nil
}

// Advance moves to the next question; it is a no-op on the last one.
func (c *Controller) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index < len(c.quiz.Questions)-1 {
		c.index++
	}
	return c.index
}

// Retreat moves to the previous question; it is a no-op on the first one.
func (c *Controller) Retreat() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index > 0 {
		c.index--
	}
	return c.index
}

// Current returns the displayed question and its index.
func (c *Controller) Current() (int, quiz.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index >= len(c.quiz.Questions) {
		return c.index, quiz.Question{}, false
	}
	question := c.quiz.Questions[c.index]
	question.Options = append([]string(nil), question.Options...)
	return c.index, question, true
}

// Submit sends the whole answer map. Calls made while a submission is in
// flight or after it succeeded return (nil, nil) without a network request.
func (c *Controller) Submit(ctx context.Context) (*quiz.SubmissionResult, error) {
	c.mu.Lock()
	if c.state == Submitting || c.state == Submitted {
		c.mu.Unlock()
		return nil, nil
	}
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if !c.hasQuiz {
		c.mu.Unlock()
		return nil, ErrNoQuiz
	}
	if !c.hasCredential() {
		c.mu.Unlock()
		return nil, ErrUnauthorized
	}
	c.state = Submitting
	answers := c.answers.Clone()
	attempted := c.quiz
	c.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()

	result, err := c.cfg.Remote.Submit(submitCtx, c.cfg.QuizID, answers)
	if err != nil {
		c.mu.Lock()
		c.state = Failed
		c.mu.Unlock()
		c.log.Warn("submission failed", "answered", len(answers), "error", err)
		return nil, &SubmissionError{QuizID: c.cfg.QuizID, Err: err}
	}
	if result.QuizID == "" {
		result.QuizID = c.cfg.QuizID
	}
	if !result.Consistent() {
		c.log.Warn("result counts do not add up", "correct", result.Correct, "wrong", result.Wrong, "not_attempted", result.NotAttempted, "total", result.Total)
	}

	c.mu.Lock()
	c.state = Submitted
	c.result = &result
	c.answers = quiz.AnswerMap{}
	if !c.closed && c.cfg.Navigate != nil {
		state := handoff.State{Result: result, Quiz: attempted}
		navigate := c.cfg.Navigate
		c.nav = time.AfterFunc(c.cfg.DisplayDelay, func() { navigate(state) })
	}
	c.mu.Unlock()

	c.timer.Cancel()
	c.notify(attempted)

	out := result
	return &out, nil
}

func (c *Controller) notify(attempted quiz.Quiz) {
	event := realtime.NewEvent(c.cfg.QuizID, attempted.Subject)
	notifier := c.cfg.Notifier
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := notifier.Emit(ctx, event); err != nil {
			c.log.Debug("submission event not delivered", "error", err)
		}
	}()
}

// Close leaves the attempt: the countdown and any pending navigation stop.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.nav != nil {
		c.nav.Stop()
	}
	c.mu.Unlock()

	c.timer.Cancel()
}

func (c *Controller) Quiz() (quiz.Quiz, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz.Clone(), c.hasQuiz
}

func (c *Controller) Profile() quiz.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Controller) Answers() quiz.AnswerMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Clone()
}

func (c *Controller) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Result() (quiz.SubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return quiz.SubmissionResult{}, false
	}
	return *c.result, true
}

func (c *Controller) Remaining() time.Duration {
	return c.timer.Remaining()
}

func (c *Controller) TimerState() countdown.State {
	return c.timer.State()
}
