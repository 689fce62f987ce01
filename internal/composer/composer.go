// Package composer builds new posts from an author snapshot and hands them
// to the feed.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/google/uuid"
)

type Composer struct {
	feed       feed.Store
	acker      ack.Acknowledger
	logger     logging.Logger
	ackTimeout time.Duration
	now        func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithAckTimeout bounds the wait for the backend to acknowledge a post.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Composer) { c.ackTimeout = d }
}

func New(store feed.Store, acker ack.Acknowledger, logger logging.Logger, opts ...Option) *Composer {
	c := &Composer{
		feed:   store,
		acker:  acker,
		logger: logger.With("module", "composer"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose publishes a post by author. Author fields are copied so later
// profile edits do not touch the post. The post shows up in the feed
// immediately and is withdrawn if the backend refuses it.
func (c *Composer) Compose(ctx context.Context, author *models.Account, body string, mediaRef *string) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if mediaRef != nil && strings.TrimSpace(*mediaRef) == "" {
		mediaRef = nil
	}

	if author == nil || author.ID == "" {
		return nil, common.NewValidationError("author is required", "author")
	}
	if body == "" && mediaRef == nil {
		return nil, common.NewValidationError("post needs text or an image", "body", "mediaRef")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("post id: %w", err)
	}

	snapshot := author.Clone()
	post := &models.Post{
		ID:                id.String(),
		AuthorID:          snapshot.ID,
		AuthorDisplayName: snapshot.DisplayName,
		AuthorAvatarRef:   snapshot.AvatarRef,
		AuthorLabel:       snapshot.Label(),
		Body:              body,
		MediaRef:          models.Optional(models.Value(mediaRef)),
		Comments:          []models.Comment{},
		CreatedAt:         c.now(),
	}

	if err := c.feed.Insert(ctx, post); err != nil {
		return nil, err
	}

	if c.acker != nil {
		if err := c.acknowledge(ctx, post); err != nil {
			if rmErr := c.feed.Remove(context.WithoutCancel(ctx), post.ID); rmErr != nil {
				c.logger.Error(ctx, "failed to withdraw post", "post_id", post.ID, "error", rmErr)
			}
			return nil, fmt.Errorf("publish post: %w", err)
		}
	}

	c.logger.Info(ctx, "post published", "post_id", post.ID, "author_id", post.AuthorID)
	return post.Clone(), nil
}

func (c *Composer) acknowledge(ctx context.Context, post *models.Post) error {
	ackCtx := context.WithoutCancel(ctx)
	if c.ackTimeout > 0 {
		var cancel context.CancelFunc
		ackCtx, cancel = context.WithTimeout(ackCtx, c.ackTimeout)
		defer cancel()
	}

	err := c.acker.Acknowledge(ackCtx, ack.Interaction{
		Kind:    ack.KindPost,
		PostID:  post.ID,
		ActorID: post.AuthorID,
		Body:    post.Body,
		At:      post.CreatedAt,
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrTimeout
	}
	if err != nil {
		c.logger.Warn(ctx, "post not acknowledged", "post_id", post.ID, "error", err)
	}
	return err
}
