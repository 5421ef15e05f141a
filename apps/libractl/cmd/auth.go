package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quatton/libra/pkg/lauth"
	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication with the libra API (login, logout, status)",
		Long: `Manage your session against a running libra API.

Examples:
  libractl auth login -u alice
  libractl auth signup -u bob --email bob@example.com --first-name Bob --last-name Doe
  libractl auth status
  libractl auth refresh
  libractl auth logout`,
	}
	authCmd.AddCommand(newLoginCmd(), newSignupCmd(), newLogoutCmd(), newStatusCmd(), newRefreshCmd())
	return authCmd
}

// readPassword takes --password, then $LIBRA_PASSWORD, then one line of
// stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	if pw := os.Getenv("LIBRA_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func describeUser(u *lsdk.User) string {
	if u == nil {
		return "unknown user"
	}
	role := "reader"
	if u.IsLibrarian {
		role = "librarian"
	}
	return fmt.Sprintf("%s (%s)", u.Username, role)
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("username")
			if username == "" {
				return errors.New("--username is required")
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			pair, err := c.Login(cmd.Context(), lsdk.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describeUser(pair.User))
			if pair.ExpiresIn > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Access token expires in %s\n", time.Duration(pair.ExpiresIn)*time.Second)
			}
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func addSignupFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("contact-number", "", "Phone number")
	cmd.Flags().String("address", "", "Postal address")
}

func signupRequest(cmd *cobra.Command) (lsdk.SignupRequest, error) {
	var in lsdk.SignupRequest
	in.Username, _ = cmd.Flags().GetString("username")
	in.Email, _ = cmd.Flags().GetString("email")
	in.FirstName, _ = cmd.Flags().GetString("first-name")
	in.LastName, _ = cmd.Flags().GetString("last-name")
	in.ContactNumber, _ = cmd.Flags().GetString("contact-number")
	in.Address, _ = cmd.Flags().GetString("address")
	if in.Username == "" || in.Email == "" {
		return in, errors.New("--username and --email are required")
	}
	pw, err := readPassword(cmd)
	if err != nil {
		return in, err
	}
	in.Password = pw
	return in, nil
}

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a reader account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			in, err := signupRequest(cmd)
			if err != nil {
				return err
			}
			pair, err := c.Signup(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed up and logged in as %s\n", describeUser(pair.User))
			return nil
		},
	}
	addSignupFlags(cmd)
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session on the server and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			if !c.Session().Active() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			err = c.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server did not confirm logout: %v\n", err)
			}
			return nil
		},
	}
}

func expiry(token string) string {
	if token == "" {
		return "-"
	}
	p, err := lauth.FromToken(token)
	if err != nil || p.Exp == 0 {
		return "unknown"
	}
	at := time.Unix(p.Exp, 0)
	if expired, _ := lauth.IsTokenExpired(token, 0); expired {
		return at.Format(time.RFC3339) + " (expired)"
	}
	return at.Format(time.RFC3339)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server: %s\n", c.BaseURL())
			if !c.Session().Active() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			tokens := c.Session().Tokens()
			if p, err := c.Principal(); err == nil {
				role := "reader"
				if p.IsLibrarian {
					role = "librarian"
				}
				fmt.Fprintf(out, "Logged in as: %s (id %d, %s)\n", p.Username, p.UserID, role)
			}
			fmt.Fprintf(out, "Access token expires: %s\n", expiry(tokens.Access))
			fmt.Fprintf(out, "Refresh token expires: %s\n", expiry(tokens.Refresh))
			return nil
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			access, err := c.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Access token refreshed, expires %s\n", expiry(access))
			return nil
		},
	}
}
