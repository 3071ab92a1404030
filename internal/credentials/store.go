// Package credentials keeps the client's bearer credential in one of two
// places: a remembered location that survives restarts, backed by SQLite, and
// a session location that lives only in memory.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrEmptyToken = errors.New("credential is empty")

// Source is what request-making code needs from the store.
type Source interface {
	Token() (string, bool)
}

type Store struct {
	db *sql.DB

	mu         sync.RWMutex
	persistent string
	session    string
}

// Open loads the remembered credential from path, creating the file if
// needed. An empty path keeps everything in memory.
func Open(ctx context.Context, path string) (*Store, error) {
	store := &Store{}
	if strings.TrimSpace(path) == "" {
		return store, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credentials dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
	slot TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	saved_at_unix INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.db = db
	var token string
	err = db.QueryRowContext(ctx, `SELECT token FROM credentials WHERE slot = 'default'`).Scan(&token)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, err
	}
	store.persistent = token
	return store, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Token returns the remembered credential if any, else the session one.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.persistent != "" {
		return s.persistent, true
	}
	if s.session != "" {
		return s.session, true
	}
	return "", false
}

// Save stores token. With remember set it is written to the persistent
// location, otherwise it is kept for this session only.
func (s *Store) Save(ctx context.Context, token string, remember bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	if remember && s.db != nil {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT INTO credentials (slot, token, saved_at_unix) VALUES ('default', ?, ?)
			 ON CONFLICT(slot) DO UPDATE SET token = excluded.token, saved_at_unix = excluded.saved_at_unix`,
			token,
			time.Now().UTC().UnixNano(),
		); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if remember {
		s.persistent = token
		s.session = ""
	} else {
		s.session = token
	}
	return nil
}

// Clear removes the credential from both locations.
func (s *Store) Clear(ctx context.Context) error {
	if s.db != nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
	}

	s.mu.Lock()
	s.persistent = ""
	s.session = ""
	s.mu.Unlock()
	return nil
}
