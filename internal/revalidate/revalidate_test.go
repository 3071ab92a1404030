package revalidate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizzly/internal/sessioncache"
)

type item struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

func TestLoadReturnsCachedValueAndStillCallsRemote(t *testing.T) {
	store := sessioncache.NewMemoryStore()
	fetcher := New(store, nil)
	require.NoError(t, sessioncache.WriteJSON(store, sessioncache.QuizKey("42"), item{ID: "42", Title: "stale"}))

	release := make(chan struct{})
	var calls int32
	result := Load(context.Background(), fetcher, sessioncache.QuizKey("42"), func(context.Context) (item, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return item{ID: "42", Title: "fresh"}, nil
	})

	require.True(t, result.HasInitial)
	require.Equal(t, "stale", result.Initial.Title)

	close(release)
	got, err := result.Settled(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", got.Title)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	cached, ok := sessioncache.ReadJSON[item](store, sessioncache.QuizKey("42"))
	require.True(t, ok)
	require.Equal(t, "fresh", cached.Title)

	latest, ok := result.Latest()
	require.True(t, ok)
	require.Equal(t, "fresh", latest.Title)
}

func TestLoadWithoutCacheEntry(t *testing.T) {
	fetcher := New(sessioncache.NewMemoryStore(), nil)

	result := Load(context.Background(), fetcher, sessioncache.KeyQuizzes, func(context.Context) ([]item, error) {
		return []item{{ID: "1"}}, nil
	})
	require.False(t, result.HasInitial)

	got, err := result.Settled(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLoadFailureLeavesCacheUntouched(t *testing.T) {
	store := sessioncache.NewMemoryStore()
	fetcher := New(store, nil)
	require.NoError(t, sessioncache.WriteJSON(store, sessioncache.KeyUser, item{ID: "u", Title: "kept"}))

	boom := errors.New("network down")
	result := Load(context.Background(), fetcher, sessioncache.KeyUser, func(context.Context) (item, error) {
		return item{}, boom
	})

	_, err := result.Settled(context.Background())
	require.ErrorIs(t, err, boom)

	cached, ok := sessioncache.ReadJSON[item](store, sessioncache.KeyUser)
	require.True(t, ok)
	require.Equal(t, "kept", cached.Title)

	latest, ok := result.Latest()
	require.True(t, ok)
	require.Equal(t, "kept", latest.Title)
}

func TestLoadMalformedCacheIsMiss(t *testing.T) {
	store := sessioncache.NewMemoryStore()
	store.Write(sessioncache.KeyUser, []byte("garbage"))
	fetcher := New(store, nil)

	result := Load(context.Background(), fetcher, sessioncache.KeyUser, func(context.Context) (item, error) {
		return item{ID: "u"}, nil
	})
	require.False(t, result.HasInitial)
	_, err := result.Settled(context.Background())
	require.NoError(t, err)
}

func TestSettledHonorsContext(t *testing.T) {
	fetcher := New(sessioncache.NewMemoryStore(), nil)
	release := make(chan struct{})
	defer close(release)

	result := Load(context.Background(), fetcher, "k", func(context.Context) (item, error) {
		<-release
		return item{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := result.Settled(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-result.Done():
		t.Fatal("remote call should still be pending")
	default:
	}
}
