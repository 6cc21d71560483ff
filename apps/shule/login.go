package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/darasahq/shule/core/session"
)

func (a *app) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your school",
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword("Enter password: ")
			if err != nil {
				return err
			}
			if err := a.sess.Login(cmd.Context(), email, pwd); err != nil {
				return err
			}
			if a.sess.State() == session.AwaitingTenantChoice {
				if err := a.pickTenant(cmd); err != nil {
					a.sess.ClearPendingTenantChoice()
					return err
				}
			}
			usr := a.sess.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", usr.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// pickTenant resolves a login that matched several schools: list the
// candidates, read a choice, complete the login with the picked tenant.
func (a *app) pickTenant(cmd *cobra.Command) error {
	tenants := a.sess.PendingTenants()
	fmt.Fprintln(cmd.OutOrStdout(), "Your account belongs to several schools:")
	for i, t := range tenants {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s (%s)\n", i+1, t.Name, t.ID)
	}
	for {
		fmt.Fprint(cmd.OutOrStdout(), "Pick a school: ")
		var in string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &in); err != nil {
			return err
		}
		i, err := strconv.Atoi(in)
		if err != nil || i < 1 || i > len(tenants) {
			fmt.Fprintln(cmd.OutOrStdout(), "not a valid choice")
			continue
		}
		if err := a.sess.LoginWithTenant(cmd.Context(), tenants[i-1].ID); err != nil {
			return err
		}
		return nil
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and wipe the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword("Choose a password: ")
			if err != nil {
				return err
			}
			registered, err := a.client.Register(cmd.Context(), email, pwd, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; check your inbox to verify the address\n", registered)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
