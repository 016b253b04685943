package cmd

import (
	"context"
	"errors"
	"fmt"

	"knowledge-workspace/pkg/client"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the workspace server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			session, err := a.client.Login(ctx, loginEmail, loginPassword)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			a.ui.Noticef("Signed in as %s (%s)", session.Email, session.Role)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.client.Logout(ctx); err != nil {
				a.ui.Mutedf("Server did not confirm logout: %v", err)
			}
			a.ui.Noticef("Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			session, err := a.client.Me(ctx)
			if errors.Is(err, client.ErrNotLoggedIn) {
				a.ui.Mutedf("Not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			a.ui.Noticef("%s (%s)", session.Email, session.Role)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
