package httpapi

import (
	"net/http"
)

func NewRouter(api *API) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quiz", api.HandleListQuizzes)
	mux.HandleFunc("GET /api/quiz/{quiz_id}", api.HandleGetQuiz)
	mux.HandleFunc("POST /api/quiz/{quiz_id}/submit", api.HandleSubmit)
	mux.HandleFunc("GET /api/auth/me", api.HandleMe)
	mux.HandleFunc("GET /socket", api.HandleSocket)

	return withRequestLogging(api.log, mux)
}
