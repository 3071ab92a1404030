package quiz

// Quizzes never change after they are created, so the first read of a quiz
// is kept for the life of the process. SeedQuiz drops the entry when an id is
// reused.

type cachedQuiz struct {
	metadata  QuizMetadata
	questions []StoredQuestion
}

func (s *Service) getCachedQuiz(quizID string) (QuizMetadata, []StoredQuestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.quizCache[quizID]
	if !ok {
		return QuizMetadata{}, nil, false
	}
	// Shared slice; callers treat it as read-only.
	return entry.metadata, entry.questions, true
}

func (s *Service) setCachedQuiz(metadata QuizMetadata, questions []StoredQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizCache[metadata.QuizID] = cachedQuiz{metadata: metadata, questions: questions}
}

func (s *Service) forgetQuiz(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizCache, quizID)
}
