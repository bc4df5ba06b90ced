package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
)

const dateLayout = "2006-01-02"

func newUsersCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage employee accounts",
	}
	cmd.AddCommand(newUsersCreateCommand(rt), newUsersSetPasswordCommand(rt))
	return cmd
}

func newUsersCreateCommand(rt *runtime) *cobra.Command {
	var (
		in                              auth.NewUser
		role, phone, employeeID         string
		manager, joiningDate, birthDate string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an hr or employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}
			in.Role = auth.Role(role)
			if phone != "" {
				in.Phone = &phone
			}
			if employeeID != "" {
				in.EmployeeID = &employeeID
			}
			if manager != "" {
				id, err := uuid.Parse(manager)
				if err != nil {
					return fmt.Errorf("invalid --manager: %w", err)
				}
				in.ReportingManagerID = &id
			}
			if in.JoiningDate, err = parseDate("joining-date", joiningDate); err != nil {
				return err
			}
			if in.DateOfBirth, err = parseDate("date-of-birth", birthDate); err != nil {
				return err
			}

			created, err := rt.env.Users.Create(ctx, actor, in)
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			if rt.opts.Output == "json" {
				return json.NewEncoder(out).Encode(created)
			}
			fmt.Fprintf(out, "Created %s (%s)\nUser:    %s\nProfile: %s\n", in.Email, in.Role, created.UserID, created.ProfileID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "login email")
	f.StringVar(&in.Password, "password", "", "initial password")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&role, "role", string(auth.RoleEmployee), "role (hr, employee)")
	f.StringVar(&in.EmploymentStatus, "status", "", "employment status (default active)")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&employeeID, "employee-id", "", "employee number")
	f.StringVar(&manager, "manager", "", "reporting manager profile id")
	f.StringVar(&joiningDate, "joining-date", "", "joining date, YYYY-MM-DD (default today)")
	f.StringVar(&birthDate, "date-of-birth", "", "date of birth, YYYY-MM-DD")
	for _, name := range []string{"email", "password", "first-name", "last-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUsersSetPasswordCommand(rt *runtime) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "set-password <profile-id>",
		Short: "Replace a profile's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}
			profileID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid profile id: %w", err)
			}
			if password == "" {
				if password, err = rt.prompt(cmd, "New password: "); err != nil {
					return err
				}
			}
			if err := rt.env.Users.ChangePassword(ctx, actor, profileID, password); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (prompted when empty)")
	return cmd
}

func parseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return &t, nil
}
