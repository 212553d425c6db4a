// Package commands implements the CLI commands.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage the Okto session: login, logout, status and token refresh.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLoginJWTCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Google ID token",
		Long: `Exchange a Google ID token for an Okto session.

Without --id-token the token is prompted for on a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if idToken == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("ID token required", "Pass --id-token")
				}
				idToken, err = tui.Secret("Google ID token")
				if err != nil {
					return err
				}
			}

			cred, err := app.Okto.Login(cmd.Context(), idToken)
			if err != nil {
				return err
			}
			return loginResult(app, cred)
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token")

	return cmd
}

func newAuthLoginJWTCmd() *cobra.Command {
	var userID, jwtToken string

	cmd := &cobra.Command{
		Use:   "login-jwt",
		Short: "Authenticate with a user ID and JWT",
		Long:  "Exchange an externally issued JWT for an Okto session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if userID == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("--user-id required", "Pass --user-id")
				}
				userID, err = tui.InputRequired("User ID", "user id the JWT was issued for")
				if err != nil {
					return err
				}
			}

			if jwtToken == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("JWT required", "Pass --jwt")
				}
				jwtToken, err = tui.Secret("JWT for " + userID)
				if err != nil {
					return err
				}
			}

			cred, err := app.Okto.LoginWithUserID(cmd.Context(), userID, jwtToken)
			if err != nil {
				return err
			}
			return loginResult(app, cred)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User ID the JWT was issued for (prompted when omitted)")
	cmd.Flags().StringVar(&jwtToken, "jwt", "", "JWT (prompted when omitted)")

	return cmd
}

func loginResult(app *appctx.App, cred *auth.Credential) error {
	return app.OK(credentialInfo(app, cred),
		output.WithSummary("Logged in"),
		output.WithBreadcrumbs(
			output.Breadcrumb{Action: "wallets", Cmd: "okto wallets", Description: "List wallets"},
			output.Breadcrumb{Action: "portfolio", Cmd: "okto portfolio", Description: "Show holdings"},
		),
	)
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Clear the session and delete the stored credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Okto.Logout(cmd.Context()); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Successfully logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display whether a session is active, where it is stored and when its token expires.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			cred := app.Session.Current()
			if cred == nil {
				return app.OK(map[string]any{
					"authenticated": false,
					"environment":   app.Config.Environment.String(),
					"base_url":      app.Config.ResolvedBaseURL(),
					"store":         auth.BackendName(app.KV),
				},
					output.WithSummary("Not authenticated"),
					output.WithBreadcrumbs(output.Breadcrumb{
						Action:      "login",
						Cmd:         "okto auth login",
						Description: "Authenticate",
					}),
				)
			}

			info := credentialInfo(app, cred)
			summary := "Authenticated"
			if exp, ok := cred.ExpiresAt(); ok {
				if time.Until(exp) <= 0 {
					summary = "Authenticated (access token expired, it is renewed on the next request)"
				} else {
					summary = "Authenticated, token expires in " + time.Until(exp).Round(time.Second).String()
				}
			}

			return app.OK(info, output.WithSummary(summary))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token",
		Long:  "Exchange the refresh token for a new token pair now.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			cred, err := app.Session.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if cred == nil {
				return output.ErrAuth("Session ended before refresh")
			}

			return app.OK(credentialInfo(app, cred), output.WithSummary("Token refreshed"))
		},
	}
}

// credentialInfo is the display form of a credential. Tokens are redacted.
func credentialInfo(app *appctx.App, cred *auth.Credential) map[string]any {
	redacted := cred.Redacted()
	info := map[string]any{
		"authenticated": true,
		"environment":   app.Config.Environment.String(),
		"base_url":      app.Config.ResolvedBaseURL(),
		"store":         auth.BackendName(app.KV),
		"auth_token":    redacted.AuthToken,
		"refresh_token": redacted.RefreshToken,
		"device_token":  redacted.DeviceToken,
	}
	if exp, ok := cred.ExpiresAt(); ok {
		info["expires_at"] = exp.UTC().Format(time.RFC3339)
		info["expired"] = !time.Now().Before(exp)
	}
	return info
}
