// Package realtime emits best-effort "quiz submitted" notifications. Nothing
// here retries or buffers: an event that cannot be sent is dropped.
package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"quizzly/internal/quiz"
)

const EventQuizSubmitted = "quizSubmitted"

var ErrNotConnected = errors.New("realtime channel not connected")

type Event struct {
	QuizID  string `json:"quizId"`
	Subject string `json:"subject"`
}

// NewEvent fills the subject default.
func NewEvent(quizID, subject string) Event {
	if subject == "" {
		subject = quiz.DefaultSubject
	}
	return Event{QuizID: quizID, Subject: subject}
}

// Message is the envelope written to the socket.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: EventQuizSubmitted, Data: data})
}

// Decode parses a socket message carrying a submission event.
func Decode(payload []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Event{}, err
	}
	if msg.Event != EventQuizSubmitted {
		return Event{}, errors.New("unexpected event " + msg.Event)
	}
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

type Notifier interface {
	Emit(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
