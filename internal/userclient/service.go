package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizzly/internal/handoff"
	"quizzly/internal/logger"
	"quizzly/internal/quiz"
	"quizzly/internal/quizsession"
	"quizzly/internal/realtime"
	"quizzly/internal/revalidate"
	"quizzly/internal/sessioncache"
)

const (
	defaultServer      = "http://127.0.0.1:8080"
	defaultHTTPTimeout = 5 * time.Second
)

var errInputClosed = errors.New("input closed")

// CredentialStore is the credential surface the terminal needs.
type CredentialStore interface {
	Token() (string, bool)
	Save(ctx context.Context, token string, remember bool) error
	Clear(ctx context.Context) error
}

type Config struct {
	ServerURL    string
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client
	DisplayDelay time.Duration
	TimerTick    time.Duration

	Cache       sessioncache.Store
	Credentials CredentialStore
	Notifier    realtime.Notifier
	// ClearSession drops every cached snapshot; called on logout.
	ClearSession func() error
	// CredentialsChanged runs after login and logout so connections that
	// carry the credential can be reopened.
	CredentialsChanged func(ctx context.Context)
	Logger             *logger.Logger
}

type terminal struct {
	cfg     Config
	out     io.Writer
	lines   <-chan string
	client  *HTTPClient
	fetcher *revalidate.Fetcher
	log     *logger.Logger

	// handed is the state delivered by the last attempt's navigation. It is
	// only readable by the command that immediately follows.
	handed *handoff.State
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	cfg.ServerURL = serverURL

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Cache == nil {
		cfg.Cache = sessioncache.NewMemoryStore()
	}
	if cfg.Credentials == nil {
		return errors.New("credential store is required")
	}

	log := logger.OrNop(cfg.Logger)
	term := &terminal{
		cfg:     cfg,
		out:     out,
		lines:   readLines(in),
		client:  NewHTTPClient(serverURL, httpClient, cfg.Credentials),
		fetcher: revalidate.New(cfg.Cache, log),
		log:     log.With("component", "terminal"),
	}

	fmt.Fprintf(out, "quizzly\nserver=%s\n\n", serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := term.readLine(ctx)
		if err != nil {
			if errors.Is(err, errInputClosed) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		handed := term.handed
		term.handed = nil

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "quizzes":
			term.runCatalog(ctx)
		case "profile":
			term.runProfile(ctx)
		case "result":
			renderResult(out, handoff.Present(handed))
		case "login":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: login <token> [remember]")
				continue
			}
			remember := len(args) > 2 && isRemember(args[2])
			if err := cfg.Credentials.Save(ctx, args[1], remember); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if remember {
				fmt.Fprintln(out, "Logged in. Credential remembered on this device.")
			} else {
				fmt.Fprintln(out, "Logged in for this session.")
			}
			term.credentialsChanged(ctx)
		case "logout":
			term.runLogout(ctx)
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <quiz_id>")
				continue
			}
			if err := term.runPlay(ctx, args[1]); err != nil {
				if errors.Is(err, errInputClosed) {
					fmt.Fprintln(out)
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

// readLines feeds input lines to a channel so the play loop can wait on
// input and timer events together.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (t *terminal) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-t.lines:
		if !ok {
			return "", errInputClosed
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *terminal) loadProfile(ctx context.Context) *revalidate.Result[quiz.UserProfile] {
	if _, ok := t.cfg.Credentials.Token(); !ok {
		return nil
	}
	return revalidate.Load(ctx, t.fetcher, sessioncache.KeyUser, t.client.GetProfile)
}

func (t *terminal) runCatalog(ctx context.Context) {
	profileResult := t.loadProfile(ctx)
	catalogResult := revalidate.Load(ctx, t.fetcher, sessioncache.KeyQuizzes, t.client.ListQuizzes)

	if catalogResult.HasInitial {
		fmt.Fprintln(t.out, "(cached)")
		printCatalog(t.out, catalogResult.Initial)
	}

	profile := quiz.GuestProfile()
	if profileResult != nil {
		if fresh, err := profileResult.Settled(ctx); err == nil {
			profile = fresh
		} else if profileResult.HasInitial {
			profile = profileResult.Initial
		}
	}

	fresh, err := catalogResult.Settled(ctx)
	if err != nil {
		if catalogResult.HasInitial {
			fmt.Fprintf(t.out, "could not refresh catalog: %v\n", describeClientError(err, t.cfg.ServerURL))
			return
		}
		fmt.Fprintf(t.out, "error: %v\n", describeClientError(err, t.cfg.ServerURL))
		return
	}

	fmt.Fprintf(t.out, "Welcome, %s. Score: %d\n", firstName(profile.Name), profile.Score)
	printCatalog(t.out, fresh)
}

func (t *terminal) runProfile(ctx context.Context) {
	result := t.loadProfile(ctx)
	if result == nil {
		printProfile(t.out, quiz.GuestProfile())
		fmt.Fprintln(t.out, "Not logged in. Use 'login <token>'.")
		return
	}

	if result.HasInitial {
		fmt.Fprintln(t.out, "(cached)")
		printProfile(t.out, result.Initial)
	}
	fresh, err := result.Settled(ctx)
	if err != nil {
		fmt.Fprintf(t.out, "could not refresh profile: %v\n", describeClientError(err, t.cfg.ServerURL))
		return
	}
	printProfile(t.out, fresh)
}

func (t *terminal) runLogout(ctx context.Context) {
	if err := t.cfg.Credentials.Clear(ctx); err != nil {
		fmt.Fprintf(t.out, "error: %v\n", err)
		return
	}
	if t.cfg.ClearSession != nil {
		if err := t.cfg.ClearSession(); err != nil {
			t.log.Warn("session cache not cleared", "error", err)
		}
	}
	fmt.Fprintln(t.out, "Logged out.")
	t.credentialsChanged(ctx)
}

func (t *terminal) credentialsChanged(ctx context.Context) {
	if t.cfg.CredentialsChanged != nil {
		t.cfg.CredentialsChanged(ctx)
	}
}

type expiry struct {
	result *quiz.SubmissionResult
	err    error
}

func (t *terminal) runPlay(ctx context.Context, quizID string) error {
	navigated := make(chan handoff.State, 1)
	expired := make(chan expiry, 1)

	controller := quizsession.New(quizsession.Config{
		QuizID:       quizID,
		Remote:       t.client,
		Fetcher:      t.fetcher,
		Credentials:  t.cfg.Credentials,
		Notifier:     t.cfg.Notifier,
		Navigate:     func(state handoff.State) { navigated <- state },
		DisplayDelay: t.cfg.DisplayDelay,
		TimerTick:    t.cfg.TimerTick,
		OnQuiz: func(q quiz.Quiz, cached bool) {
			if cached {
				fmt.Fprintf(t.out, "(cached) %s\n", q.Title)
			}
		},
		OnExpire: func(result *quiz.SubmissionResult, err error) {
			expired <- expiry{result: result, err: err}
		},
		Logger: t.log,
	})
	defer controller.Close()

	if err := controller.Mount(ctx); err != nil {
		return describeClientError(err, t.cfg.ServerURL)
	}

	attempt, _ := controller.Quiz()
	if len(attempt.Questions) == 0 {
		fmt.Fprintf(t.out, "quiz %s has no questions.\n", quizID)
		return nil
	}
	fmt.Fprintf(t.out, "%s (%s) %d questions, %s\n", attempt.Title, attempt.SubjectOrDefault(), len(attempt.Questions), formatRemaining(time.Duration(attempt.Duration)*time.Second))
	fmt.Fprintf(t.out, "Player: %s\n", controller.Profile().Name)
	fmt.Fprintln(t.out, "Pick an option by letter, 'n'/'p' to move, 's' to submit, 'q' to leave.")

	if err := controller.Start(); err != nil {
		return err
	}

	for {
		renderQuestion(t.out, controller)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-navigated:
			t.showResult(state)
			return nil
		case exp := <-expired:
			fmt.Fprintln(t.out, "Time is up!")
			if exp.err != nil {
				t.printSubmitError(exp.err)
				continue
			}
			if exp.result != nil {
				return t.awaitNavigation(ctx, *exp.result, navigated)
			}
		case line, ok := <-t.lines:
			if !ok {
				return errInputClosed
			}
			input := strings.ToLower(strings.TrimSpace(line))
			switch input {
			case "":
			case "n", "next":
				controller.Advance()
			case "p", "prev":
				controller.Retreat()
			case "q", "quit":
				fmt.Fprintln(t.out, "Left the quiz.")
				return nil
			case "s", "submit":
				result, err := controller.Submit(ctx)
				if err != nil {
					t.printSubmitError(err)
					continue
				}
				if result == nil {
					fmt.Fprintln(t.out, "Submission already in progress.")
					continue
				}
				return t.awaitNavigation(ctx, *result, navigated)
			default:
				t.selectOption(controller, input)
			}
		}
	}
}

func (t *terminal) selectOption(controller *quizsession.Controller, input string) {
	_, question, ok := controller.Current()
	if !ok {
		return
	}
	index, ok := parseOptionLetter(input, len(question.Options))
	if !ok {
		fmt.Fprintln(t.out, "Invalid input.")
		return
	}
	if err := controller.SelectAnswer(question.ID, question.Options[index]); err != nil {
		fmt.Fprintf(t.out, "error: %v\n", err)
	}
}

func (t *terminal) printSubmitError(err error) {
	var submitErr *quizsession.SubmissionError
	switch {
	case errors.Is(err, quizsession.ErrUnauthorized) && !errors.As(err, &submitErr):
		fmt.Fprintln(t.out, "Please login to submit your quiz!")
	case errors.As(err, &submitErr):
		fmt.Fprintf(t.out, "Submission failed: %v. Your answers are kept; press 's' to retry.\n", describeClientError(submitErr.Err, t.cfg.ServerURL))
	default:
		fmt.Fprintf(t.out, "error: %v\n", err)
	}
}

func (t *terminal) awaitNavigation(ctx context.Context, result quiz.SubmissionResult, navigated <-chan handoff.State) error {
	fmt.Fprintf(t.out, "Submitted! Score: %d\n", result.Score)
	select {
	case state := <-navigated:
		t.showResult(state)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *terminal) showResult(state handoff.State) {
	view := handoff.Present(&state)
	if !view.Consistent {
		t.log.Warn("inconsistent result counts", "quiz_id", view.RetryQuizID, "correct", view.Result.Correct, "wrong", view.Result.Wrong, "not_attempted", view.Result.NotAttempted, "total", view.Result.Total)
	}
	renderResult(t.out, view)
	t.handed = &state
}
