package cli

import (
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/client/notify"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/dmitrijs2005/cribfeed/internal/session"
	"github.com/spf13/cobra"
)

func (a *App) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in with email and password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var email string
			if len(args) > 0 {
				email = args[0]
			}
			email, err := a.valueOrPrompt(email, "Email:")
			if err != nil {
				return err
			}

			password, err := a.password()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			acc, err := a.client.Session.Login(cmd.Context(), email, string(password))
			if err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Welcome back, %s", acc.DisplayName)
			return nil
		},
	}
}

func (a *App) registerCmd() *cobra.Command {
	var req session.RegisterRequest
	var role, discipline string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Email, err = a.valueOrPrompt(req.Email, "Email:"); err != nil {
				return err
			}
			if req.DisplayName, err = a.valueOrPrompt(req.DisplayName, "Display name:"); err != nil {
				return err
			}
			if role, err = a.valueOrPrompt(role, "Role (artist|viewer):"); err != nil {
				return err
			}
			req.Role = models.Role(strings.ToLower(strings.TrimSpace(role)))
			if req.Role == models.RoleArtist {
				if discipline, err = a.valueOrPrompt(discipline, "Creative discipline:"); err != nil {
					return err
				}
				req.CreativeDiscipline = discipline
			}

			password, err := a.password()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)
			req.Password = string(password)

			acc, err := a.client.Session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Welcome to cribfeed, %s (%s)", acc.DisplayName, acc.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "artist or viewer")
	cmd.Flags().StringVar(&discipline, "discipline", "", "creative discipline (artists)")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.notify(notify.KindSuccess, "Signed out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), u)
			return nil
		},
	}
}
