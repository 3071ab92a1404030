package httpapi

import (
	"quizzly/internal/auth"
	"quizzly/internal/logger"
	"quizzly/internal/quiz"
)

type API struct {
	service *quiz.Service
	auth    *auth.Authenticator
	hub     *Hub
	log     *logger.Logger
}

func NewAPI(service *quiz.Service, authenticator *auth.Authenticator, hub *Hub, log *logger.Logger) *API {
	log = logger.OrNop(log)
	if hub == nil {
		hub = NewHub(log)
	}
	return &API{
		service: service,
		auth:    authenticator,
		hub:     hub,
		log:     log,
	}
}
