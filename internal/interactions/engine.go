// Package interactions is the Interaction Engine: likes, saves and
// comments applied optimistically to a single post and rolled back when
// the backend does not acknowledge them.
package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

type Config struct {
	// AckTimeout bounds how long a mutation waits for acknowledgement
	// before it is rolled back.
	AckTimeout time.Duration
}

// Engine serializes operations per post. Operations on different posts run
// concurrently.
type Engine struct {
	feed   feed.Store
	acker  ack.Acknowledger
	logger logging.Logger
	cfg    Config
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*postLock
}

// postLock is dropped from Engine.locks once nobody holds or waits on it.
type postLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewEngine(store feed.Store, acker ack.Acknowledger, logger logging.Logger, cfg Config) *Engine {
	return &Engine{
		feed:   store,
		acker:  acker,
		logger: logger.With("module", "interactions"),
		cfg:    cfg,
		now:    time.Now,
		locks:  make(map[string]*postLock),
	}
}

// ToggleLike flips the viewer's like on the post and adjusts the like
// count, which never drops below zero.
func (e *Engine) ToggleLike(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, common.NewValidationError("viewer is required", "viewerId")
	}

	release, err := e.acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		wasLiked  bool
		prevCount int
	)
	updated, err := e.feed.Update(ctx, postID, func(p *models.Post) error {
		wasLiked, prevCount = p.IsLikedBy(viewerID), p.LikeCount
		p.SetLiked(viewerID, !wasLiked)
		if wasLiked {
			p.LikeCount = max(p.LikeCount-1, 0)
		} else {
			p.LikeCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := ack.KindLike
	if wasLiked {
		kind = ack.KindUnlike
	}

	err = e.acknowledge(ctx, ack.Interaction{Kind: kind, PostID: postID, ActorID: viewerID, At: e.now()})
	if err != nil {
		e.rollback(ctx, postID, kind, func(p *models.Post) error {
			p.SetLiked(viewerID, wasLiked)
			p.LikeCount = prevCount
			return nil
		})
		return nil, fmt.Errorf("%s post %s: %w", kind, postID, err)
	}
	return updated.ForViewer(viewerID), nil
}

// ToggleSave flips the viewer's bookmark on the post.
func (e *Engine) ToggleSave(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, common.NewValidationError("viewer is required", "viewerId")
	}

	release, err := e.acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	var wasSaved bool
	updated, err := e.feed.Update(ctx, postID, func(p *models.Post) error {
		wasSaved = p.IsSavedBy(viewerID)
		p.SetSaved(viewerID, !wasSaved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := ack.KindSave
	if wasSaved {
		kind = ack.KindUnsave
	}

	err = e.acknowledge(ctx, ack.Interaction{Kind: kind, PostID: postID, ActorID: viewerID, At: e.now()})
	if err != nil {
		e.rollback(ctx, postID, kind, func(p *models.Post) error {
			p.SetSaved(viewerID, wasSaved)
			return nil
		})
		return nil, fmt.Errorf("%s post %s: %w", kind, postID, err)
	}
	return updated.ForViewer(viewerID), nil
}

// AddComment prepends a comment by author to the post.
func (e *Engine) AddComment(ctx context.Context, postID string, author *models.Account, body string) (*models.Post, error) {
	body = strings.TrimSpace(body)

	var fields []string
	if author == nil || author.ID == "" {
		fields = append(fields, "author")
	}
	if body == "" {
		fields = append(fields, "body")
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("cannot add comment", fields...)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("comment id: %w", err)
	}

	comment := models.Comment{
		ID:                id.String(),
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarRef:   author.Clone().AvatarRef,
		Body:              body,
		CreatedAt:         e.now(),
	}

	release, err := e.acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := e.feed.Update(ctx, postID, func(p *models.Post) error {
		p.Comments = append([]models.Comment{comment}, p.Comments...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = e.acknowledge(ctx, ack.Interaction{
		Kind:      ack.KindComment,
		PostID:    postID,
		ActorID:   author.ID,
		CommentID: comment.ID,
		Body:      body,
		At:        comment.CreatedAt,
	})
	if err != nil {
		e.rollback(ctx, postID, ack.KindComment, func(p *models.Post) error {
			p.RemoveComment(comment.ID)
			return nil
		})
		return nil, fmt.Errorf("comment on post %s: %w", postID, err)
	}
	return updated.ForViewer(author.ID), nil
}

// acquire waits for the post's turn. The returned func releases it.
func (e *Engine) acquire(ctx context.Context, postID string) (func(), error) {
	if strings.TrimSpace(postID) == "" {
		return nil, common.NewValidationError("post id is required", "postId")
	}

	e.mu.Lock()
	l, ok := e.locks[postID]
	if !ok {
		l = &postLock{sem: semaphore.NewWeighted(1)}
		e.locks[postID] = l
	}
	l.refs++
	e.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		e.unref(postID, l)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("waiting for post %s: %w", postID, common.ErrTimeout)
		}
		return nil, fmt.Errorf("waiting for post %s: %w", postID, err)
	}
	return func() {
		l.sem.Release(1)
		e.unref(postID, l)
	}, nil
}

func (e *Engine) unref(postID string, l *postLock) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l.refs--; l.refs == 0 {
		delete(e.locks, postID)
	}
}

// acknowledge outlives the caller's context: once a mutation is applied
// only the acknowledgement result or AckTimeout decides its fate.
func (e *Engine) acknowledge(ctx context.Context, in ack.Interaction) error {
	ackCtx := context.WithoutCancel(ctx)
	if e.cfg.AckTimeout > 0 {
		var cancel context.CancelFunc
		ackCtx, cancel = context.WithTimeout(ackCtx, e.cfg.AckTimeout)
		defer cancel()
	}

	err := e.acker.Acknowledge(ackCtx, in)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = common.ErrTimeout
	}
	if err != nil {
		e.logger.Warn(ctx, "interaction not acknowledged", "kind", in.Kind, "post_id", in.PostID, "error", err)
	}
	return err
}

func (e *Engine) rollback(ctx context.Context, postID string, kind ack.Kind, undo func(*models.Post) error) {
	if _, err := e.feed.Update(context.WithoutCancel(ctx), postID, undo); err != nil {
		e.logger.Error(ctx, "rollback failed", "kind", kind, "post_id", postID, "error", err)
		return
	}
	e.logger.Info(ctx, "rolled back", "kind", kind, "post_id", postID)
}
