package command

import (
	"fmt"
	"time"

	"teamchat/cmd/cli/authentication"
	"teamchat/cmd/cli/command/client"
	"teamchat/cmd/cli/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the teamchat server. Supports signup, login, logout and whoami.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SignupRequest
		req.Name, _ = cmd.Flags().GetString("name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := requestContext(cmd)
		defer cancel()

		response, err := client.NewHTTPClient(apiURL).Signup(ctx, &req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		if err := saveToken(response); err != nil {
			return err
		}
		color.Green("✓ Account created, logged in as %s (id %d)", response.User.Name, response.User.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := requestContext(cmd)
		defer cancel()

		response, err := client.NewHTTPClient(apiURL).Login(ctx, &req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := saveToken(response); err != nil {
			return err
		}
		color.Green("✓ Logged in as %s", response.User.Name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Println("✓ Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (id %d)\n", creds.Name, creds.Email, creds.UserID)
		if creds.ExpiresAt > 0 {
			fmt.Printf("token expires %s\n", time.Unix(creds.ExpiresAt, 0).Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(authCmd)

	signupCmd.Flags().StringP("name", "n", "", "Display name")
	signupCmd.Flags().StringP("email", "e", "", "Email address")
	signupCmd.Flags().StringP("password", "p", "", "Password (min 6 characters)")
	signupCmd.MarkFlagRequired("name")
	signupCmd.MarkFlagRequired("email")
	signupCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("email", "e", "", "Email address")
	loginCmd.Flags().StringP("password", "p", "", "Password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}

// saveToken stores the token and identity in the OS keyring
func saveToken(resp *dto.AuthResponse) error {
	creds := &authentication.StoredCredentials{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Name:   resp.User.Name,
		Email:  resp.User.Email,
	}
	if resp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	}
	if err := authentication.StoreTokens(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}
