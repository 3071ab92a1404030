package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quizzly/internal/quiz"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Is lets callers match status classes against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case quiz.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case quiz.ErrQuizNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

// TokenSource supplies the bearer credential, if any.
type TokenSource interface {
	Token() (string, bool)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type profileResponse struct {
	User *quiz.UserProfile `json:"user"`
}

type submitRequest struct {
	Answers quiz.AnswerMap `json:"answers"`
}

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client, tokens TokenSource) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

func (c *HTTPClient) token() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token()
}

func (c *HTTPClient) ListQuizzes(ctx context.Context) ([]quiz.QuizSummary, error) {
	var payload []quiz.QuizSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/quiz", nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = []quiz.QuizSummary{}
	}
	return payload, nil
}

func (c *HTTPClient) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	if strings.TrimSpace(quizID) == "" {
		return quiz.Quiz{}, errors.New("quiz_id is required")
	}

	var payload quiz.Quiz
	if err := c.doJSON(ctx, http.MethodGet, "/api/quiz/"+url.PathEscape(quizID), nil, &payload); err != nil {
		return quiz.Quiz{}, err
	}
	return payload, nil
}

// GetProfile returns the Guest profile without a request when no credential
// is held.
func (c *HTTPClient) GetProfile(ctx context.Context) (quiz.UserProfile, error) {
	if _, ok := c.token(); !ok {
		return quiz.GuestProfile(), nil
	}

	var payload profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &payload); err != nil {
		return quiz.UserProfile{}, err
	}
	if payload.User == nil {
		return quiz.GuestProfile(), nil
	}
	return *payload.User, nil
}

func (c *HTTPClient) Submit(ctx context.Context, quizID string, answers quiz.AnswerMap) (quiz.SubmissionResult, error) {
	if strings.TrimSpace(quizID) == "" {
		return quiz.SubmissionResult{}, errors.New("quiz_id is required")
	}
	if answers == nil {
		answers = quiz.AnswerMap{}
	}

	var result quiz.SubmissionResult
	path := "/api/quiz/" + url.PathEscape(quizID) + "/submit"
	if err := c.doJSON(ctx, http.MethodPost, path, submitRequest{Answers: answers}, &result); err != nil {
		return quiz.SubmissionResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.token(); ok {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Error)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(payload.Message)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
