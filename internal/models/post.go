package models

import (
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/common"
)

// Comment belongs to exactly one Post.
type Comment struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"authorId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	AuthorAvatarRef   *string   `json:"authorAvatarRef,omitempty"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Post is a feed item. Author fields are copied from the account when the
// post is composed and are not updated afterwards.
type Post struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"authorId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	AuthorAvatarRef   *string   `json:"authorAvatarRef,omitempty"`
	AuthorLabel       string    `json:"authorLabel"`
	Body              string    `json:"body"`
	MediaRef          *string   `json:"mediaRef,omitempty"`
	LikeCount         int       `json:"likeCount"`
	LikedBy           []string  `json:"likedBy,omitempty"` // account ids, sorted
	SavedBy           []string  `json:"savedBy,omitempty"` // account ids, sorted
	ViewerHasLiked    bool      `json:"viewerHasLiked"`    // set by ForViewer
	ViewerHasSaved    bool      `json:"viewerHasSaved"`    // set by ForViewer
	Comments          []Comment `json:"comments"` // newest first
	CreatedAt         time.Time `json:"createdAt"`
}

// Validate enforces that a post carries text or media.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return common.NewValidationError("post id is required", "id")
	}
	if strings.TrimSpace(p.Body) == "" && (p.MediaRef == nil || *p.MediaRef == "") {
		return common.NewValidationError("post needs a body or a media reference", "body", "mediaRef")
	}
	if p.LikeCount < 0 {
		return common.NewValidationError("like count must not be negative", "likeCount")
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Post) Clone() *Post {
	c := *p
	c.AuthorAvatarRef = cloneString(p.AuthorAvatarRef)
	c.MediaRef = cloneString(p.MediaRef)
	c.LikedBy = slices.Clone(p.LikedBy)
	c.SavedBy = slices.Clone(p.SavedBy)
	if p.Comments != nil {
		c.Comments = make([]Comment, len(p.Comments))
		for i, cm := range p.Comments {
			cm.AuthorAvatarRef = cloneString(cm.AuthorAvatarRef)
			c.Comments[i] = cm
		}
	}
	return &c
}

// RemoveComment drops the comment with the given id, keeping order.
func (p *Post) RemoveComment(id string) bool {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return true
		}
	}
	return false
}

// ForViewer returns a copy of p with the viewer flags describing
// accountID. An empty accountID is a signed-out viewer.
func (p *Post) ForViewer(accountID string) *Post {
	c := p.Clone()
	c.ViewerHasLiked = p.IsLikedBy(accountID)
	c.ViewerHasSaved = p.IsSavedBy(accountID)
	return c
}

func (p *Post) IsLikedBy(accountID string) bool { return hasMember(p.LikedBy, accountID) }
func (p *Post) IsSavedBy(accountID string) bool { return hasMember(p.SavedBy, accountID) }

// SetLiked adds or removes accountID from the likers. LikeCount is left to
// the caller since it also counts likes made elsewhere.
func (p *Post) SetLiked(accountID string, liked bool) {
	p.LikedBy = setMember(p.LikedBy, accountID, liked)
}

func (p *Post) SetSaved(accountID string, saved bool) {
	p.SavedBy = setMember(p.SavedBy, accountID, saved)
}

func hasMember(set []string, id string) bool {
	if id == "" {
		return false
	}
	_, ok := slices.BinarySearch(set, id)
	return ok
}

func setMember(set []string, id string, on bool) []string {
	i, ok := slices.BinarySearch(set, id)
	switch {
	case on && !ok:
		return slices.Insert(set, i, id)
	case !on && ok:
		return slices.Delete(set, i, i+1)
	}
	return set
}
