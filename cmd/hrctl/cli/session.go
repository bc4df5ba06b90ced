package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if email == "" {
				v, err := rt.prompt(cmd, "Email: ")
				if err != nil {
					return err
				}
				email = v
			}
			if password == "" {
				v, err := rt.prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = v
			}
			user, err := rt.env.Auth.Login(ctx, rt.provider.Store(), email, password)
			if err != nil {
				return describe(err)
			}
			rt.provider.RefreshUser(ctx)
			return printUser(cmd.OutOrStdout(), rt.opts.Output, user, "Signed in as")
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.provider.SignOut(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), rt.opts.Output, user, "")
		},
	}
}

func (rt *runtime) prompt(cmd *cobra.Command, label string) (string, error) {
	if rt.stdin == nil {
		rt.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := rt.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUser(w io.Writer, format string, user *auth.User, prefix string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}
	if prefix != "" {
		fmt.Fprintf(w, "%s %s\n", prefix, user.Email)
	}
	fmt.Fprintf(w, "Name:    %s %s\n", user.FirstName, user.LastName)
	fmt.Fprintf(w, "Email:   %s\n", user.Email)
	fmt.Fprintf(w, "Role:    %s\n", user.Role)
	fmt.Fprintf(w, "Profile: %s\n", user.ProfileID)
	return nil
}

// describe keeps the user-facing message and drops the underlying cause.
func describe(err error) error {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return errors.New(authErr.Message)
	}
	return err
}
