package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with an email and password. The token is stored in the token file
under the bhss_auth key and used by every other command.

Example: bhss login --email admin@bhss.ph`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			session, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s), token valid until %s\n",
				session.User.Name, session.User.Role, formatTime(session.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s>\nRole: %s\n", user.Name, user.Email, user.Role)
			if user.School != "" {
				fmt.Printf("School: %s, %s\n", user.School, user.Municipality)
			}
			return nil
		},
	}
}
