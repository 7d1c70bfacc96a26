package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend and store the session",
	Long: `Sign in with a username and password. The access and refresh tokens are
kept in the state database so later commands run signed in.

The password is read from the terminal without echo, or from SLIB_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			user := a.client.Session().Username()
			if err := a.client.Logout(); err != nil {
				return err
			}
			if user != "" {
				util.SuccessLog("Signed out %s", user)
			} else {
				util.InfoLog("Not signed in")
			}
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and when the access token expires",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "username (prompted when empty)")
	viper.BindEnv("password", "SLIB_PASSWORD")
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = viper.GetString("username")
	}
	if username == "" {
		u, err := util.PromptLine(os.Stdin, "Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = u
	}
	if username == "" {
		return fmt.Errorf("username is required: %w", util.ErrValidation)
	}

	password := viper.GetString("password")
	if password == "" {
		p, err := util.PromptPassword("Password: ")
		if err != nil {
			return err
		}
		password = p
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.client.Login(ctx, username, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		util.SuccessLog("Signed in as %s", username)
		if exp, ok := a.client.Session().ExpiresAt(); ok {
			util.DebugLog("Access token expires %s", humanize.Time(exp))
		}
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		s := a.client.Session()
		if !s.Authenticated() {
			return util.ErrNotAuthenticated
		}

		out := cmd.OutOrStdout()
		field(out, "User", s.Username())
		field(out, "Backend", GetConfigString("api", ""))
		if exp, ok := s.ExpiresAt(); ok {
			msg := "expires " + humanize.Time(exp)
			if time.Now().After(exp) {
				msg = fmt.Sprintf("expired %s, refreshed on next request", humanize.Time(exp))
			}
			field(out, "Access token", msg)
		}
		if at, ok, err := a.store.SessionUpdatedAt(); err == nil && ok {
			field(out, "Stored", humanize.Time(at))
		}
		return nil
	})
}
