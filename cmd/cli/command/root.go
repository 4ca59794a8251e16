package command

// root.go defines the root command for chatcli and its global flags.

import (
	"context"
	"fmt"
	"os"
	"time"

	"teamchat/cmd/cli/authentication"
	"teamchat/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var (
	apiURL string // Global flag for API server URL
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "chatcli - team chat from the terminal",
	Long: `chatcli talks to a teamchat server. With it you can:
- Sign up and log in
- List, create, join and leave channels
- Read channel history
- Chat in realtime with delivery and read receipts

Use "chatcli command --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("TEAMCHAT_API")
	if defaultURL == "" {
		defaultURL = "http://localhost:4000"
	}
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL")
}

// GetAuthenticatedClient returns an HTTP client carrying the stored token.
func GetAuthenticatedClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, nil, err
	}
	httpClient := client.NewHTTPClient(apiURL)
	httpClient.SetToken(creds.Token)
	return httpClient, creds, nil
}

// requestContext bounds one CLI request
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 10*time.Second)
}

// explain turns auth failures into a hint to log in again
func explain(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("%w (run 'chatcli auth login' again)", err)
	}
	return err
}
