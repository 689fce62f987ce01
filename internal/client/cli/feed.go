package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/client/notify"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/spf13/cobra"
)

func (a *App) feedCmd() *cobra.Command {
	var comments bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			posts, err := a.client.Feed.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				printlnFn(cmd.OutOrStdout(), "The feed is empty. Share something with 'post'.")
				return nil
			}
			now := time.Now()
			for i := range posts {
				printPost(cmd.OutOrStdout(), i+1, posts[i].ForViewer(u.ID), now, comments)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&comments, "comments", false, "show comments")
	return cmd
}

func (a *App) postCmd() *cobra.Command {
	var media string

	cmd := &cobra.Command{
		Use:   "post [text...]",
		Short: "Share a post with text, media or both",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			body := strings.Join(args, " ")
			if body == "" && media == "" {
				if body, err = GetSimpleText(a.reader, "What are you working on?", a.out); err != nil {
					return err
				}
			}

			p, err := a.client.Composer.Compose(cmd.Context(), u, body, models.Optional(media))
			if err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Posted %s", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&media, "media", "", "media reference returned by upload")
	return cmd
}

func (a *App) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a media file and print its reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			key, err := a.uploader.Upload(cmd.Context(), data, http.DetectContentType(data))
			if err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Uploaded. Attach it with: post --media %s", key)
			return nil
		},
	}
}

func (a *App) likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			id, err := a.resolvePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := a.client.Engine.ToggleLike(cmd.Context(), id, u.ID)
			if err != nil {
				return err
			}
			verb := "Unliked"
			if p.ViewerHasLiked {
				verb = "Liked"
			}
			a.notify(notify.KindSuccess, "%s %s (%d likes)", verb, p.AuthorDisplayName+"'s post", p.LikeCount)
			return nil
		},
	}
}

func (a *App) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <post>",
		Short: "Save or unsave a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			id, err := a.resolvePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := a.client.Engine.ToggleSave(cmd.Context(), id, u.ID)
			if err != nil {
				return err
			}
			if p.ViewerHasSaved {
				a.notify(notify.KindSuccess, "Saved")
			} else {
				a.notify(notify.KindSuccess, "Removed from saved")
			}
			return nil
		},
	}
}

func (a *App) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post> [text...]",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			id, err := a.resolvePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")
			if body == "" {
				if body, err = GetSimpleText(a.reader, "Your comment:", a.out); err != nil {
					return err
				}
			}
			p, err := a.client.Engine.AddComment(cmd.Context(), id, u, body)
			if err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Comment added (%d comments)", len(p.Comments))
			return nil
		},
	}
}

// resolvePost maps a feed position to a post id; anything else is taken as
// an id.
func (a *App) resolvePost(ctx context.Context, ref string) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref, nil
	}
	posts, err := a.client.Feed.All(ctx)
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(posts) {
		return "", fmt.Errorf("%w: no post at position %d", errUnknownPost, n)
	}
	return posts[n-1].ID, nil
}
