package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"math/rand"
	"strings"

	"quizzly/internal/opentdb"
)

// BuildQuestions turns raw trivia items into stored questions with shuffled
// options. The correct option is remembered by text, which is also what a
// client submits.
func BuildQuestions(raw []opentdb.RawQuestion) []StoredQuestion {
	questions := make([]StoredQuestion, 0, len(raw))
	for _, item := range raw {
		question := buildQuestion(item)
		question.ID = MakeQuestionID(question)
		questions = append(questions, question)
	}
	return questions
}

func MakeQuestionID(question StoredQuestion) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Text)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:])
}

func buildQuestion(raw opentdb.RawQuestion) StoredQuestion {
	correct := html.UnescapeString(raw.CorrectAnswer)

	options := make([]string, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		options = append(options, html.UnescapeString(incorrect))
	}
	options = append(options, correct)

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return StoredQuestion{
		Question: Question{
			Text:    html.UnescapeString(raw.Question),
			Options: options,
		},
		CorrectOption: correct,
	}
}

// Grade scores an answer map against the answer key. Answers to unknown
// questions are ignored; a blank answer counts as not attempted.
func Grade(quizID string, questions []StoredQuestion, answers AnswerMap) SubmissionResult {
	result := SubmissionResult{QuizID: quizID, Total: len(questions)}
	for _, question := range questions {
		answer, ok := answers[question.ID]
		switch {
		case !ok || strings.TrimSpace(answer) == "":
			result.NotAttempted++
		case answer == question.CorrectOption:
			result.Correct++
		default:
			result.Wrong++
		}
	}
	result.Score = result.Correct * PointsPerCorrect
	return result
}
