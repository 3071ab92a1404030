// Package sessioncache holds last-known-good snapshots of remote data for the
// lifetime of one client session. Entries have no TTL and are never evicted;
// a write always replaces the previous value.
package sessioncache

import (
	"encoding/json"
)

const (
	KeyQuizzes = "quizzes"
	KeyUser    = "user"
)

// QuizKey is the cache key of a single quiz snapshot.
func QuizKey(quizID string) string {
	return "quiz_" + quizID
}

// Store is a synchronous key/value snapshot store. Read never fails: an
// unreadable entry is reported as absent.
type Store interface {
	Read(key string) ([]byte, bool)
	Write(key string, payload []byte)
}

// ReadJSON decodes a snapshot. Malformed payloads are treated as absent.
func ReadJSON[T any](store Store, key string) (T, bool) {
	var value T
	if store == nil {
		return value, false
	}
	payload, ok := store.Read(key)
	if !ok || len(payload) == 0 {
		return value, false
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		var zero T
		return zero, false
	}
	return value, true
}

// WriteJSON encodes value and overwrites the entry under key.
func WriteJSON(store Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	store.Write(key, payload)
	return nil
}
