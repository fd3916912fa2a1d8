package cli

import (
	"context"
	"fmt"

	"prepcoach/internal/common"
	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in to the career-prep platform and manage the saved session",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in with email and password. Credentials are taken from the flags,
then from the configuration (PREPCOACH_AUTH_EMAIL, PREPCOACH_AUTH_PASSWORD or
Vault), and finally asked for interactively.

The session token and cookies are saved to the storage directory and reused
by later commands until "prepcoach auth logout".`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the saved credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var (
	loginEmail    string
	loginPassword string
	loginConfig   common.CommandConfig
	whoamiConfig  common.CommandConfig
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prefer the environment or the prompt)")
	addOutputFlags(loginCmd, &loginConfig)
	addOutputFlags(whoamiCmd, &whoamiConfig)

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
}

// resolveCredentials picks flags over configuration and prompts for the rest
func resolveCredentials(ctx context.Context, a *app) (types.Credentials, error) {
	creds := types.Credentials{Email: loginEmail, Password: loginPassword}
	if creds.Email == "" {
		creds.Email = a.cfg.Auth.Email
	}
	if creds.Password == "" {
		creds.Password = a.cfg.Auth.Password
	}
	if creds.Email != "" && creds.Password != "" {
		return creds, nil
	}
	if !a.term.Interactive() {
		return creds, errors.NewValidationError(errors.ErrCodeMissingCredentials,
			"email and password are required; pass --email and set PREPCOACH_AUTH_PASSWORD", nil)
	}
	return a.term.Login(ctx, creds.Email)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}

	creds, err := resolveCredentials(cmd.Context(), a)
	if err != nil {
		return err
	}

	return common.RunCommand(cmd.Context(), a.logger, loginConfig, a.out, "auth.login",
		func(ctx context.Context) (*types.User, error) {
			return client.Login(ctx, creds)
		})
}

func runLogout(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	if err := client.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out") //nolint:errcheck
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	if client.Session().Empty() {
		return errors.NewAuthError(errors.ErrCodeUnauthorized, "not logged in; run \"prepcoach auth login\"", nil)
	}
	return common.RunCommand(cmd.Context(), a.logger, whoamiConfig, a.out, "auth.me", client.Me)
}
