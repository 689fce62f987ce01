// Package feed is the Feed Store: the ordered, newest-first collection of
// posts with their comments and like counts.
package feed

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/models"
)

// Store holds the feed. Every method hands out copies; callers never share
// memory with the store. Likes and saves are kept per account in
// LikedBy/SavedBy. The Viewer flags are never stored; callers derive them
// with Post.ForViewer.
type Store interface {
	// Insert prepends post. A post that fails validation is rejected and a
	// duplicate id is a conflict.
	Insert(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// All returns the feed newest-first.
	All(ctx context.Context) ([]models.Post, error)
	// Update applies fn to the post atomically and stores the result unless
	// fn returns an error.
	Update(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error)
	Remove(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	posts []*models.Post // newest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(post.ID) >= 0 {
		return common.ErrConflict
	}
	p := post.Clone()
	p.ViewerHasLiked, p.ViewerHasSaved = false, false
	s.posts = append([]*models.Post{p}, s.posts...)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	return s.posts[i].Clone(), nil
}

func (s *MemoryStore) All(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, common.ErrNotFound
	}

	next := s.posts[i].Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.ViewerHasLiked, next.ViewerHasSaved = false, false

	s.posts[i] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return common.ErrNotFound
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}

// Len reports the number of posts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

func (s *MemoryStore) indexLocked(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
