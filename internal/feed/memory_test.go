package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newPost(id string, minutes int) *models.Post {
	return &models.Post{
		ID:                id,
		AuthorID:          "1",
		AuthorDisplayName: "Amara Okafor",
		AuthorLabel:       "Visual Art",
		Body:              "post " + id,
		LikeCount:         3,
		CreatedAt:         baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestMemoryStore_InsertPrepends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, newPost("p1", 0)))
	require.NoError(t, s.Insert(ctx, newPost("p2", 1)))
	require.NoError(t, s.Insert(ctx, newPost("p3", 2)))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(all))
}

func TestMemoryStore_InsertRejects(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newPost("p1", 0)))

	err := s.Insert(ctx, newPost("p1", 1))
	assert.ErrorIs(t, err, common.ErrConflict)

	empty := newPost("p2", 1)
	empty.Body = "   "
	err = s.Insert(ctx, empty)
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := newPost("p1", 0)
	p.Comments = []models.Comment{{ID: "c1", AuthorID: "2", Body: "nice"}}
	require.NoError(t, s.Insert(ctx, p))

	p.Body = "mutated by caller"
	p.Comments[0].Body = "mutated by caller"

	got, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "post p1", got.Body)
	assert.Equal(t, "nice", got.Comments[0].Body)

	got.LikeCount = 999
	all, err := s.All(ctx)
	require.NoError(t, err)
	all[0].Comments[0].Body = "mutated again"

	again, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.LikeCount)
	assert.Equal(t, "nice", again.Comments[0].Body)
}

func TestMemoryStore_GetByID_NotFound(t *testing.T) {
	_, err := NewMemoryStore().GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newPost("p1", 0)))

	updated, err := s.Update(ctx, "p1", func(p *models.Post) error {
		p.LikeCount++
		p.SetLiked("2", true)
		p.ViewerHasLiked = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.LikeCount)
	assert.Equal(t, []string{"2"}, updated.LikedBy)
	assert.False(t, updated.ViewerHasLiked, "viewer flags are derived, never stored")

	stored, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	if diff := cmp.Diff(updated, stored); diff != "" {
		t.Fatalf("stored post mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore_UpdateErrorLeavesPostUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newPost("p1", 0)))
	boom := errors.New("boom")

	_, err := s.Update(ctx, "p1", func(p *models.Post) error {
		p.LikeCount = 100
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Update(ctx, "p1", func(p *models.Post) error {
		p.LikeCount = -1
		return nil
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	stored, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.LikeCount)

	_, err = s.Update(ctx, "ghost", func(*models.Post) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newPost("p1", 0)))
	require.NoError(t, s.Insert(ctx, newPost("p2", 1)))

	require.NoError(t, s.Remove(ctx, "p2"))
	assert.ErrorIs(t, s.Remove(ctx, "p2"), common.ErrNotFound)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(all))
}
