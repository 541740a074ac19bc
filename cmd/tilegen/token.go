package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/tilegen-backend/internal/app"
	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/services"
)

var (
	tokenEmail    string
	tokenUsername string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage development access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an access token, creating an active user when the email is new",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email := strings.ToLower(strings.TrimSpace(tokenEmail))
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		r, closeDB, err := openRepos(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		u, created, err := r.User.EnsureActive(ctx, nil, email, tokenUsername)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.ErrOrStderr(), "created user %s\n", u.ID)
		}
		if err := r.User.TouchLastLogin(ctx, nil, u.ID, time.Now()); err != nil {
			return err
		}

		auth, err := services.NewAuthService(log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
		if err != nil {
			return err
		}
		token, err := auth.IssueAccessToken(ctx, u)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

// Tokens carry no revocation list; disabling the user makes the auth
// middleware reject every token issued to them.
var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Disable a user so their outstanding tokens are rejected",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email := strings.ToLower(strings.TrimSpace(tokenEmail))
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		r, closeDB, err := openRepos(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		u, err := r.User.GetByEmail(ctx, nil, email)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("no user with email %s", email)
		}
		if err := r.User.UpdateStatus(ctx, nil, u.ID, types.UserStatusDisabled); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "disabled user %s\n", u.ID)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenEmail, "email", "", "user email")
	tokenIssueCmd.Flags().StringVar(&tokenUsername, "username", "", "username for a newly created user")
	tokenRevokeCmd.Flags().StringVar(&tokenEmail, "email", "", "user email")
	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}
