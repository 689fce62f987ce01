package composer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func artist() *models.Account {
	return &models.Account{ID: "1", DisplayName: "Amara Okafor", Email: "amara@example.com",
		Role: models.RoleArtist, CreativeDiscipline: models.Optional("Visual Art"),
		AvatarRef: models.Optional("amara.jpg")}
}

func newComposer(store feed.Store, acker ack.Acknowledger) *Composer {
	return New(store, acker, discardLogger(), WithClock(func() time.Time { return fixedNow }))
}

func TestCompose_TextPost(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	c := newComposer(store, &ack.Simulated{})

	p, err := c.Compose(ctx, artist(), "  Hello world ", nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", p.Body)
	assert.Equal(t, "1", p.AuthorID)
	assert.Equal(t, "Amara Okafor", p.AuthorDisplayName)
	assert.Equal(t, "Visual Art", p.AuthorLabel)
	assert.Equal(t, "amara.jpg", models.Value(p.AuthorAvatarRef))
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Zero(t, p.LikeCount)
	assert.Nil(t, p.MediaRef)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Hello world", all[0].Body)
	assert.Equal(t, 0, all[0].LikeCount)
}

func TestCompose_MediaOnly(t *testing.T) {
	c := newComposer(feed.NewMemoryStore(), nil)

	p, err := c.Compose(context.Background(), artist(), "", models.Optional("posts/2024/3/1/abc"))
	require.NoError(t, err)
	assert.Equal(t, "posts/2024/3/1/abc", models.Value(p.MediaRef))
}

func TestCompose_Rejects(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	c := newComposer(store, nil)

	_, err := c.Compose(ctx, artist(), "", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	blank := "   "
	_, err = c.Compose(ctx, artist(), " ", &blank)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = c.Compose(ctx, nil, "hi", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Zero(t, store.Len())
}

func TestCompose_ViewerGetsDefaultLabel(t *testing.T) {
	viewer := &models.Account{ID: "2", DisplayName: "Kofi", Email: "k@x.com", Role: models.RoleViewer}
	p, err := newComposer(feed.NewMemoryStore(), nil).Compose(context.Background(), viewer, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLabel, p.AuthorLabel)
}

func TestCompose_AuthorIsSnapshotted(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	author := artist()

	p, err := newComposer(store, nil).Compose(ctx, author, "hi", nil)
	require.NoError(t, err)

	author.DisplayName = "Renamed"
	*author.AvatarRef = "other.jpg"

	stored, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amara Okafor", stored.AuthorDisplayName)
	assert.Equal(t, "amara.jpg", models.Value(stored.AuthorAvatarRef))
}

func TestCompose_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	c := New(store, nil, discardLogger())

	first, err := c.Compose(ctx, artist(), "first", nil)
	require.NoError(t, err)
	second, err := c.Compose(ctx, artist(), "second", nil)
	require.NoError(t, err)

	assert.Less(t, first.ID, second.ID, "ids sort by creation time")

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", all[0].Body)
}

func TestCompose_WithdrawnWhenDenied(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	c := newComposer(store, &ack.Simulated{Deny: func(in ack.Interaction) bool { return in.Kind == ack.KindPost }})

	_, err := c.Compose(ctx, artist(), "hello", nil)
	require.ErrorIs(t, err, common.ErrRejected)
	assert.Zero(t, store.Len())
}

func TestCompose_AckTimeout(t *testing.T) {
	ctx := context.Background()
	store := feed.NewMemoryStore()
	hang := ack.AcknowledgerFunc(func(ctx context.Context, _ ack.Interaction) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c := New(store, hang, discardLogger(), WithAckTimeout(10*time.Millisecond))

	_, err := c.Compose(ctx, artist(), "hello", nil)
	require.ErrorIs(t, err, common.ErrTimeout)
	assert.Zero(t, store.Len())
}
