package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"quizzly/internal/quiz"
)

// RecordSubmission inserts the graded attempt and credits its score to the
// profile in one transaction, so a profile score always equals the sum of the
// user's recorded submissions.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, quizID string, submission quiz.Submission) error {
	answersJSON, err := json.Marshal(submission.Answers)
	if err != nil {
		return err
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result := submission.Result
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO submissions (submission_id, quiz_id, username_norm, answers_json, score, correct, wrong, not_attempted, total, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submission.SubmissionID,
		quizID,
		submission.Username,
		string(answersJSON),
		result.Score,
		result.Correct,
		result.Wrong,
		result.NotAttempted,
		result.Total,
		submission.SubmittedAt.UnixNano(),
	); err != nil {
		return err
	}

	// A submission for a user without a profile row still creates one.
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO profiles (username_norm, name, email, score) VALUES (?, ?, '', ?)
		 ON CONFLICT(username_norm) DO UPDATE SET score = profiles.score + excluded.score`,
		submission.Username,
		submission.Username,
		result.Score,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ListSubmissions returns a user's submissions for a quiz, newest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, quizID, usernameNormalized string) ([]quiz.Submission, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT submission_id, answers_json, score, correct, wrong, not_attempted, total, submitted_at_unix
		 FROM submissions
		 WHERE quiz_id = ? AND username_norm = ?
		 ORDER BY submitted_at_unix DESC`,
		quizID,
		usernameNormalized,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]quiz.Submission, 0)
	for rows.Next() {
		var (
			item            quiz.Submission
			answersJSON     string
			submittedAtUnix int64
		)
		if err := rows.Scan(
			&item.SubmissionID,
			&answersJSON,
			&item.Result.Score,
			&item.Result.Correct,
			&item.Result.Wrong,
			&item.Result.NotAttempted,
			&item.Result.Total,
			&submittedAtUnix,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answersJSON), &item.Answers); err != nil {
			return nil, err
		}
		item.Username = usernameNormalized
		item.Result.QuizID = quizID
		item.SubmittedAt = time.Unix(0, submittedAtUnix).UTC()
		submissions = append(submissions, item)
	}
	return submissions, rows.Err()
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile quiz.UserProfile) (quiz.UserProfile, error) {
	if profile.Username == "" {
		return quiz.UserProfile{}, quiz.ErrInvalidUsername
	}

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO profiles (username_norm, name, email, score) VALUES (?, ?, ?, ?)
		 ON CONFLICT(username_norm) DO UPDATE SET name = excluded.name, email = excluded.email`,
		profile.Username,
		profile.Name,
		profile.Email,
		profile.Score,
	); err != nil {
		return quiz.UserProfile{}, err
	}
	return s.GetProfile(ctx, profile.Username)
}

func (s *SQLiteStore) GetProfile(ctx context.Context, usernameNormalized string) (quiz.UserProfile, error) {
	profile := quiz.UserProfile{Username: usernameNormalized}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT name, email, score FROM profiles WHERE username_norm = ?`,
		usernameNormalized,
	).Scan(&profile.Name, &profile.Email, &profile.Score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.UserProfile{}, quiz.ErrProfileNotFound
		}
		return quiz.UserProfile{}, err
	}
	return profile, nil
}
