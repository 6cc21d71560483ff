package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darasahq/shule/core/gate"
	"github.com/darasahq/shule/core/perm"
	"github.com/darasahq/shule/services/api"
)

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			usr := a.sess.CurrentUser()
			if usr == nil {
				fmt.Fprintf(out, "Not signed in (%s)\n", a.sess.State())
				return nil
			}
			fmt.Fprintf(out, "User:   %s <%s>\n", usr.Name, usr.Email)
			if tid := a.sess.TenantID(); tid != "" {
				fmt.Fprintf(out, "School: %s\n", tid)
			}
			if exp := api.TokenExpiry(a.sess.AccessToken()); !exp.IsZero() {
				fmt.Fprintf(out, "Token:  expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			fmt.Fprintf(out, "Grants: %d permissions\n", len(a.sess.Permissions()))
			return nil
		},
	}
}

func (a *app) canCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can <permission>...",
		Short: "Check whether the session grants the given permissions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range args {
				res := gate.Use(a.sess, gate.Check{Permission: p})
				switch {
				case !res.Ready:
					fmt.Fprintf(out, "%s: unknown (session still loading)\n", p)
				case res.Granted:
					fmt.Fprintf(out, "%s: allowed\n", p)
				default:
					fmt.Fprintf(out, "%s: denied\n", p)
				}
			}
			return nil
		},
	}
}

func (a *app) featuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Show which plan features your school has",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Mirror what the app does when it returns to the foreground.
			a.sess.OnForeground(cmd.Context())

			out := cmd.OutOrStdout()
			if len(a.sess.EnabledFeatures()) == 0 {
				fmt.Fprintln(out, "No plan restrictions: all features enabled")
			}
			for _, key := range perm.AllFeatures {
				mark := " "
				if a.sess.IsFeatureEnabled(key) {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %s\n", mark, key)
			}
			return nil
		},
	}
}
