package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/fatih/color"
)

var bold = color.New(color.Bold).SprintFunc()

func printProfile(w io.Writer, u *models.Account) {
	fmt.Fprintf(w, "%s  %s\n", bold(u.DisplayName), u.Label())
	fmt.Fprintf(w, "  %s\n", u.Email)
	if bio := models.Value(u.Bio); bio != "" {
		fmt.Fprintf(w, "  %s\n", bio)
	}
	fmt.Fprintf(w, "  followers %d  following %d  collaborations %d  works %d\n",
		u.Followers, u.Following, u.Collaborations, u.WorksPublished)
}

func printPost(w io.Writer, n int, p *models.Post, now time.Time, comments bool) {
	fmt.Fprintf(w, "[%d] %s  %s · %s\n", n, bold(p.AuthorDisplayName), p.AuthorLabel, since(now, p.CreatedAt))
	if p.Body != "" {
		fmt.Fprintf(w, "    %s\n", p.Body)
	}
	if p.MediaRef != nil {
		fmt.Fprintf(w, "    [media] %s\n", *p.MediaRef)
	}

	liked, saved := " ", " "
	if p.ViewerHasLiked {
		liked = "*"
	}
	if p.ViewerHasSaved {
		saved = "*"
	}
	fmt.Fprintf(w, "    %s%d likes  %d comments  %ssaved  id %s\n", liked, p.LikeCount, len(p.Comments), saved, p.ID)

	if comments {
		for _, c := range p.Comments {
			fmt.Fprintf(w, "      %s: %s (%s)\n", bold(c.AuthorDisplayName), c.Body, since(now, c.CreatedAt))
		}
	}
}

// since renders the age of t relative to now the way the feed shows it.
func since(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
