package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"quizzly/internal/auth"
	"quizzly/internal/quiz"
)

const defaultListLimit = 50

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultListLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	items, err := a.service.ListQuizzes(r.Context(), limit)
	if err != nil {
		a.log.Error("list quizzes failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := strings.TrimSpace(r.PathValue("quiz_id"))
	if quizID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quiz_id is required"})
		return
	}

	payload, err := a.service.GetQuiz(r.Context(), quizID)
	if err != nil {
		if !errors.Is(err, quiz.ErrQuizNotFound) {
			a.log.Error("get quiz failed", "quiz_id", quizID, "error", err)
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandleMe answers with the Guest profile when no credential is presented
// and 401 when one is presented but invalid.
func (a *API) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := a.auth.FromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			writeJSON(w, http.StatusOK, profileResponse{User: quiz.GuestProfile()})
			return
		}
		writeServiceError(w, err)
		return
	}

	profile, err := a.service.ResolveProfile(r.Context(), identity)
	if err != nil {
		a.log.Error("resolve profile failed", "username", identity.Username, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: profile})
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, err := a.auth.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login required to submit"})
		return
	}

	quizID := strings.TrimSpace(r.PathValue("quiz_id"))
	defer r.Body.Close()

	var request submitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if request.Answers == nil {
		request.Answers = quiz.AnswerMap{}
	}

	// Make sure the profile exists so the score has somewhere to go.
	if _, err := a.service.ResolveProfile(r.Context(), identity); err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := a.service.Submit(r.Context(), quizID, identity.Username, request.Answers)
	if err != nil {
		if !errors.Is(err, quiz.ErrQuizNotFound) {
			a.log.Error("submit failed", "quiz_id", quizID, "username", identity.Username, "error", err)
		}
		writeServiceError(w, err)
		return
	}

	a.log.Info("quiz submitted", "quiz_id", quizID, "username", identity.Username, "score", result.Score)
	writeJSON(w, http.StatusOK, result)
}

func (a *API) HandleSocket(w http.ResponseWriter, r *http.Request) {
	if err := a.hub.Serve(w, r); err != nil {
		a.log.Warn("socket upgrade failed", "error", err)
	}
}
