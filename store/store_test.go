package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"clipwebapi/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store driver must share.
func runStoreContract(t *testing.T, s store.Store) {
	ctx := context.Background()

	newJob := func(id string) *store.Job {
		return &store.Job{ID: id, UserID: "user-1", Status: store.StatusProcessing}
	}

	t.Run("create and get", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("create-get")))

		got, err := s.Get(ctx, "create-get")
		require.NoError(t, err)
		assert.Equal(t, "create-get", got.ID)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, store.StatusProcessing, got.Status)
		assert.Empty(t, got.PublicURL)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate id", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("dup")))
		assert.ErrorIs(t, s.Create(ctx, newJob("dup")), store.ErrDuplicateKey)
	})

	t.Run("create rejects non-processing status", func(t *testing.T) {
		j := newJob("bad-status")
		j.Status = store.StatusReady
		assert.Error(t, s.Create(ctx, j))
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("finish ready", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("ready")))
		require.NoError(t, s.Finish(ctx, "ready", store.Ready("https://cdn/clips/clip-ready.mp4", "clips/clip-ready.mp4")))

		got, err := s.Get(ctx, "ready")
		require.NoError(t, err)
		assert.Equal(t, store.StatusReady, got.Status)
		assert.Equal(t, "https://cdn/clips/clip-ready.mp4", got.PublicURL)
		assert.Equal(t, "clips/clip-ready.mp4", got.StoragePath)
		assert.Empty(t, got.Error)
	})

	t.Run("finish error", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("failed")))
		require.NoError(t, s.Finish(ctx, "failed", store.Failed("download failed: boom")))

		got, err := s.Get(ctx, "failed")
		require.NoError(t, err)
		assert.Equal(t, store.StatusError, got.Status)
		assert.Equal(t, "download failed: boom", got.Error)
		assert.Empty(t, got.PublicURL)
	})

	t.Run("finish only once", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("once")))
		require.NoError(t, s.Finish(ctx, "once", store.Failed("first")))
		assert.ErrorIs(t, s.Finish(ctx, "once", store.Ready("u", "p")), store.ErrAlreadyFinished)

		got, err := s.Get(ctx, "once")
		require.NoError(t, err)
		assert.Equal(t, "first", got.Error)
	})

	t.Run("finish rejects non-terminal result", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("non-terminal")))
		assert.Error(t, s.Finish(ctx, "non-terminal", store.Result{Status: store.StatusProcessing}))
	})

	t.Run("finish unknown", func(t *testing.T) {
		assert.ErrorIs(t, s.Finish(ctx, "ghost", store.Failed("x")), store.ErrNotFound)
	})

	t.Run("concurrent finish writes once", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("race")))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := s.Finish(ctx, "race", store.Failed(fmt.Sprintf("writer %d", i))); err == nil {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newJob("gone")))
		require.NoError(t, s.Delete(ctx, "gone"))

		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "gone"), store.ErrNotFound)
		assert.ErrorIs(t, s.Finish(ctx, "gone", store.Failed("late")), store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, store.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &store.Job{ID: "a", UserID: "u", Status: store.StatusProcessing}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Status = store.StatusReady

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, store.StatusProcessing, again.Status)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, store.StatusReady.Terminal())
	assert.True(t, store.StatusError.Terminal())
	assert.False(t, store.StatusProcessing.Terminal())
	assert.False(t, store.StatusIdle.Terminal())
}

func TestResultConstructors(t *testing.T) {
	r := store.Ready("url", "path")
	assert.Equal(t, store.StatusReady, r.Status)
	assert.Equal(t, "url", r.PublicURL)

	f := store.Failed("msg")
	assert.Equal(t, store.StatusError, f.Status)
	assert.Equal(t, "msg", f.Error)

}
