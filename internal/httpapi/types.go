package httpapi

import "quizzly/internal/quiz"

type profileResponse struct {
	User quiz.UserProfile `json:"user"`
}

type submitRequest struct {
	Answers quiz.AnswerMap `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}
