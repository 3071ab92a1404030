package quiz

import (
	"testing"

	"quizzly/internal/opentdb"
)

func TestBuildQuestionsUnescapesAndKeepsCorrectOption(t *testing.T) {
	raw := []opentdb.RawQuestion{
		{
			Question:         "What does &quot;HTML&quot; stand for?",
			CorrectAnswer:    "Hyper Text Markup Language",
			IncorrectAnswers: []string{"Home Tool &amp; Markup", "Hyperlinks Text Mark"},
		},
	}

	questions := BuildQuestions(raw)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	question := questions[0]
	if question.Text != `What does "HTML" stand for?` {
		t.Fatalf("question text = %q", question.Text)
	}
	if len(question.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(question.Options))
	}
	if question.CorrectOption != "Hyper Text Markup Language" {
		t.Fatalf("correct option = %q", question.CorrectOption)
	}

	found := false
	for _, option := range question.Options {
		if option == "Home Tool & Markup" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unescaped incorrect option in %v", question.Options)
	}
	if question.ID == "" || question.ID[:2] != "q_" {
		t.Fatalf("unexpected question id %q", question.ID)
	}
}

func TestMakeQuestionIDIsStable(t *testing.T) {
	question := StoredQuestion{Question: Question{Text: "2+2?", Options: []string{"4", "5"}}}
	if MakeQuestionID(question) != MakeQuestionID(question) {
		t.Fatalf("expected deterministic id")
	}

	other := StoredQuestion{Question: Question{Text: "2+2?", Options: []string{"5", "4"}}}
	if MakeQuestionID(question) == MakeQuestionID(other) {
		t.Fatalf("option order must change the id")
	}
}

func TestGradeCountsEachOutcome(t *testing.T) {
	questions := sampleQuestions()
	answers := AnswerMap{
		"q1": "4",
		"q2": "Green",
	}

	result := Grade("quiz-1", questions, answers)
	if result.Correct != 1 || result.Wrong != 1 || result.NotAttempted != 1 || result.Total != 3 {
		t.Fatalf("unexpected grade: %+v", result)
	}
	if result.Score != PointsPerCorrect {
		t.Fatalf("score = %d, want %d", result.Score, PointsPerCorrect)
	}
	if result.QuizID != "quiz-1" {
		t.Fatalf("quiz id = %q", result.QuizID)
	}
	if !result.Consistent() {
		t.Fatalf("graded result must be consistent: %+v", result)
	}
}

func TestGradeIgnoresUnknownQuestionsAndBlankAnswers(t *testing.T) {
	result := Grade("quiz-1", sampleQuestions(), AnswerMap{"nope": "4", "q1": "  "})
	if result.NotAttempted != 3 || result.Correct != 0 || result.Wrong != 0 {
		t.Fatalf("unexpected grade: %+v", result)
	}
}

func sampleQuestions() []StoredQuestion {
	return []StoredQuestion{
		{Question: Question{ID: "q1", Text: "2+2?", Options: []string{"4", "3"}}, CorrectOption: "4"},
		{Question: Question{ID: "q2", Text: "Sky color?", Options: []string{"Green", "Blue"}}, CorrectOption: "Blue"},
		{Question: Question{ID: "q3", Text: "Capital of France?", Options: []string{"Paris", "Rome"}}, CorrectOption: "Paris"},
	}
}
