package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/models"
)

func TestStatsCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenStatsCache(dir)
	require.NoError(t, err)

	_, ok, err := cache.Get("acme/api", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := CommitStats{Additions: 12, Deletions: 4, Total: 16}
	require.NoError(t, cache.Put("acme/api", "abc", want))

	got, ok, err := cache.Get("acme/api", "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	// same sha in another repository is a separate entry
	_, ok, err = cache.Get("acme/web", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Close())

	// entries survive reopening
	reopened, err := OpenStatsCache(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err = reopened.Get("acme/api", "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCommitStatsApply(t *testing.T) {
	c := models.RawCommit{SHA: "abc"}
	CommitStats{Additions: 2, Deletions: 1, Total: 3}.apply(&c)
	assert.Equal(t, 2, c.Additions)
	assert.Equal(t, 1, c.Deletions)
	assert.Equal(t, 3, c.TotalChanges)
}
