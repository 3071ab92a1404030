package userclient

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quizzly/internal/handoff"
	"quizzly/internal/quiz"
	"quizzly/internal/quizsession"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  quizzes")
	fmt.Fprintln(out, "  profile")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  result")
	fmt.Fprintln(out, "  login <token> [remember]")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  exit")
}

func printCatalog(out io.Writer, items []quiz.QuizSummary) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No quizzes available.")
		return
	}

	fmt.Fprintln(out, "Quizzes:")
	for idx, item := range items {
		subject := item.Subject
		if subject == "" {
			subject = quiz.DefaultSubject
		}
		fmt.Fprintf(out, "%d. %s [%s] %s (%d questions, %s)\n",
			idx+1,
			item.Title,
			item.ID,
			subject,
			item.QuestionCount,
			formatRemaining(time.Duration(item.Duration)*time.Second),
		)
	}
}

func printProfile(out io.Writer, profile quiz.UserProfile) {
	fmt.Fprintf(out, "%s score=%d\n", profile.Name, profile.Score)
}

func renderQuestion(out io.Writer, controller *quizsession.Controller) {
	index, question, ok := controller.Current()
	if !ok {
		return
	}
	attempt, _ := controller.Quiz()
	selected := controller.Answers()[question.ID]

	fmt.Fprintln(out)
	fmt.Fprintf(out, "[%d/%d] %s  time left %s\n\n", index+1, len(attempt.Questions), question.Text, formatRemaining(controller.Remaining()))
	for idx, option := range question.Options {
		marker := " "
		if option == selected {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %c. %s\n", marker, 'A'+idx, option)
	}
	fmt.Fprint(out, "> ")
}

func renderResult(out io.Writer, view handoff.View) {
	fmt.Fprintln(out)
	if view.Empty {
		fmt.Fprintln(out, view.Message)
		return
	}

	if view.QuizTitle != "" {
		fmt.Fprintf(out, "Results: %s\n", view.QuizTitle)
	}
	fmt.Fprintf(out, "Score: %d\n", view.Result.Score)
	fmt.Fprintf(out, "Accuracy: %d%%\n", view.Accuracy)
	fmt.Fprintf(out, "Correct: %d  Wrong: %d  Not attempted: %d  Total: %d\n",
		view.Result.Correct,
		view.Result.Wrong,
		view.Result.NotAttempted,
		view.Result.Total,
	)
	if !view.Consistent {
		fmt.Fprintln(out, "(counts reported by the server do not add up)")
	}
	if view.RetryQuizID != "" {
		fmt.Fprintf(out, "Try again: play %s\n", view.RetryQuizID)
	}
}

// parseOptionLetter maps "a".."z" to an option index.
func parseOptionLetter(input string, optionCount int) (int, bool) {
	if optionCount < 1 {
		return 0, false
	}
	answer := strings.ToUpper(strings.TrimSpace(input))
	if len(answer) != 1 {
		return 0, false
	}
	index := int(answer[0]) - 'A'
	if index < 0 || index >= optionCount {
		return 0, false
	}
	return index, true
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Explorer"
	}
	return fields[0]
}

func isRemember(arg string) bool {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "remember", "yes", "y", "true":
		return true
	default:
		return false
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	if errors.Is(err, quiz.ErrQuizNotFound) {
		return errors.New("quiz not found")
	}
	return err
}
