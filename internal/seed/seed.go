// Package seed loads the demo community into the credential and feed
// stores.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"gopkg.in/yaml.v3"
)

// DemoPassword signs in every demo account.
const DemoPassword = "password"

//go:embed demo.yaml
var demoYAML []byte

type Account struct {
	ID             string `yaml:"id"`
	DisplayName    string `yaml:"displayName"`
	Email          string `yaml:"email"`
	Avatar         string `yaml:"avatar"`
	Bio            string `yaml:"bio"`
	Role           string `yaml:"role"`
	Discipline     string `yaml:"discipline"`
	Followers      int    `yaml:"followers"`
	Following      int    `yaml:"following"`
	Collaborations int    `yaml:"collaborations"`
	Works          int    `yaml:"works"`
}

type Comment struct {
	ID     string `yaml:"id"`
	Author string `yaml:"author"`
	Body   string `yaml:"body"`
	Age    string `yaml:"age"`
}

type Post struct {
	ID       string    `yaml:"id"`
	Author   string    `yaml:"author"`
	Body     string    `yaml:"body"`
	Media    string    `yaml:"media"`
	Likes    int       `yaml:"likes"`
	Age      string    `yaml:"age"`
	Comments []Comment `yaml:"comments"`
}

// Dataset is the parsed demo file. Posts are listed newest first.
type Dataset struct {
	Accounts []Account `yaml:"accounts"`
	Posts    []Post    `yaml:"posts"`
}

// Demo returns the embedded dataset.
func Demo() (*Dataset, error) {
	return Parse(demoYAML)
}

func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &ds, nil
}

// Load inserts the embedded dataset, hashing DemoPassword at cost.
// Records that already exist are skipped so Load can run on every start.
func Load(ctx context.Context, creds credentials.Store, posts feed.Store, cost int) error {
	ds, err := Demo()
	if err != nil {
		return err
	}
	return ds.Load(ctx, creds, posts, cost, time.Now())
}

// Load inserts ds, dating posts and comments relative to now.
func (ds *Dataset) Load(ctx context.Context, creds credentials.Store, posts feed.Store, cost int, now time.Time) error {
	hash, err := credentials.HashPassword(DemoPassword, cost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	authors := make(map[string]*models.Account, len(ds.Accounts))
	for _, a := range ds.Accounts {
		acc := a.toModel()
		authors[acc.ID] = acc
		if err := creds.Add(ctx, acc, hash); err != nil && !errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}

	// Insert oldest first; the store prepends.
	for i := len(ds.Posts) - 1; i >= 0; i-- {
		p, err := ds.Posts[i].toModel(authors, now)
		if err != nil {
			return err
		}
		if err := posts.Insert(ctx, p); err != nil && !errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}
	return nil
}

func (a Account) toModel() *models.Account {
	acc := &models.Account{
		ID:             a.ID,
		DisplayName:    a.DisplayName,
		Email:          a.Email,
		AvatarRef:      models.Optional(a.Avatar),
		Bio:            models.Optional(a.Bio),
		Role:           models.Role(a.Role),
		Followers:      a.Followers,
		Following:      a.Following,
		Collaborations: a.Collaborations,
		WorksPublished: a.Works,
	}
	if acc.Role == models.RoleArtist {
		acc.CreativeDiscipline = models.Optional(a.Discipline)
	}
	return acc
}

func (p Post) toModel(authors map[string]*models.Account, now time.Time) (*models.Post, error) {
	author, ok := authors[p.Author]
	if !ok {
		return nil, fmt.Errorf("seed post %s: unknown author %q", p.ID, p.Author)
	}
	age, err := parseAge(p.Age)
	if err != nil {
		return nil, fmt.Errorf("seed post %s: %w", p.ID, err)
	}

	post := &models.Post{
		ID:                p.ID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarRef:   author.Clone().AvatarRef,
		AuthorLabel:       author.Label(),
		Body:              p.Body,
		MediaRef:          models.Optional(p.Media),
		LikeCount:         p.Likes,
		Comments:          make([]models.Comment, 0, len(p.Comments)),
		CreatedAt:         now.Add(-age),
	}

	for _, c := range p.Comments {
		commenter, ok := authors[c.Author]
		if !ok {
			return nil, fmt.Errorf("seed comment %s: unknown author %q", c.ID, c.Author)
		}
		cAge, err := parseAge(c.Age)
		if err != nil {
			return nil, fmt.Errorf("seed comment %s: %w", c.ID, err)
		}
		post.Comments = append(post.Comments, models.Comment{
			ID:                c.ID,
			AuthorID:          commenter.ID,
			AuthorDisplayName: commenter.DisplayName,
			AuthorAvatarRef:   commenter.Clone().AvatarRef,
			Body:              c.Body,
			CreatedAt:         now.Add(-cAge),
		})
	}
	return post, nil
}

func parseAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
