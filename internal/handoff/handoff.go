// Package handoff carries a finished attempt from the quiz session to the
// results view. The state exists only in the navigation that produced it;
// nothing here fetches or persists.
package handoff

import (
	"math"

	"quizzly/internal/quiz"
)

const EmptyMessage = "No result data. Pick a quiz from the catalog to take one."

// State is passed by value through the navigation callback.
type State struct {
	Result quiz.SubmissionResult
	Quiz   quiz.Quiz
}

// View is what the results screen renders.
type View struct {
	Empty   bool
	Message string

	Result     quiz.SubmissionResult
	QuizTitle  string
	Accuracy   int
	Consistent bool

	// RetryQuizID starts a fresh attempt of the same quiz.
	RetryQuizID string
}

// Present builds the results view. A nil state yields the empty view.
func Present(state *State) View {
	if state == nil {
		return View{Empty: true, Message: EmptyMessage}
	}

	retryID := state.Result.QuizID
	if retryID == "" {
		retryID = state.Quiz.ID
	}
	return View{
		Result:      state.Result,
		QuizTitle:   state.Quiz.Title,
		Accuracy:    Accuracy(state.Result.Correct, state.Result.Total),
		Consistent:  state.Result.Consistent(),
		RetryQuizID: retryID,
	}
}

// Accuracy is round(correct / max(total, 1) * 100).
func Accuracy(correct, total int) int {
	if total < 1 {
		total = 1
	}
	if correct <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
