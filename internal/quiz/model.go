package quiz

// GuestName is the display name used when no credential is presented.
const GuestName = "Guest"

// DefaultSubject labels quizzes that were published without a subject.
const DefaultSubject = "General"

type UserProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Score    int    `json:"score"`
}

func GuestProfile() UserProfile {
	return UserProfile{Name: GuestName, Username: GuestName}
}

func (p UserProfile) IsGuest() bool {
	return p.Name == "" || p.Name == GuestName
}

// QuizSummary is one catalog entry.
type QuizSummary struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"questionCount"`
}

// Quiz is the full attempt payload. Duration is in seconds.
type Quiz struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Duration    int        `json:"duration"`
	Questions   []Question `json:"questions"`
}

// Question options are identified by their text; order is significant.
type Question struct {
	ID      string   `json:"_id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		out.Questions[i] = Question{
			ID:      question.ID,
			Text:    question.Text,
			Options: append([]string(nil), question.Options...),
		}
	}
	return out
}

func (q Quiz) SubjectOrDefault() string {
	if q.Subject == "" {
		return DefaultSubject
	}
	return q.Subject
}

func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Subject:       q.Subject,
		Duration:      q.Duration,
		QuestionCount: len(q.Questions),
	}
}

// AnswerMap maps a question id to the selected option text. A missing key
// means the question was not answered.
type AnswerMap map[string]string

func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SubmissionResult is computed by the service and never recomputed locally.
type SubmissionResult struct {
	Score        int    `json:"score"`
	Correct      int    `json:"correct"`
	Wrong        int    `json:"wrong"`
	NotAttempted int    `json:"notAttempted"`
	Total        int    `json:"total"`
	QuizID       string `json:"quizId"`
}

// Consistent reports whether the counts add up to the total.
func (r SubmissionResult) Consistent() bool {
	return r.Correct+r.Wrong+r.NotAttempted == r.Total
}

// StoredQuestion carries the answer key and only exists on the service side.
type StoredQuestion struct {
	Question
	CorrectOption string
}

func PublicQuestions(questions []StoredQuestion) []Question {
	public := make([]Question, 0, len(questions))
	for _, question := range questions {
		public = append(public, question.Question)
	}
	return public
}
