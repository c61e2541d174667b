package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/browser"
	"github.com/tessro/cadence/internal/spotify/auth"
)

const loginTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long:  `Opens a browser to authenticate with Spotify using the OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func openAuthURL(authURL string) error {
	fmt.Println("Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Println("Could not open browser automatically.")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
	}
	fmt.Println("Waiting for authentication...")
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ac, err := authConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, loginTimeout)
	defer cancelTimeout()

	token, err := auth.Login(ctx, ac, openAuthURL)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}
	if err := storage.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}
	user, err := s.client.GetCurrentUser(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return writeJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s (%s)\n", user.DisplayName, user.Email)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		if JSONOutput() {
			return writeJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		return writeJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil {
		if JSONOutput() {
			return writeJSON(map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'cadence auth login' to authenticate.")
		return nil
	}

	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	user, err := s.client.GetCurrentUser(ctx)
	if err != nil {
		if JSONOutput() {
			return writeJSON(map[string]any{
				"authenticated": true,
				"valid":         false,
				"error":         err.Error(),
			})
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'cadence auth login' to re-authenticate.")
		return nil
	}

	// The session may have refreshed the token to answer the request.
	current := s.tokens.Current()
	if JSONOutput() {
		return writeJSON(map[string]any{
			"authenticated": true,
			"valid":         true,
			"user_id":       user.ID,
			"display_name":  user.DisplayName,
			"email":         user.Email,
			"product":       user.Product,
			"expires_at":    current.Expiry,
		})
	}

	fmt.Printf("Authenticated as: %s (%s)\n", user.DisplayName, user.Email)
	fmt.Printf("Account type: %s\n", user.Product)
	if !current.Expiry.IsZero() {
		fmt.Printf("Token expires: %s (refreshed automatically)\n", humanize.Time(current.Expiry))
	}
	return nil
}
