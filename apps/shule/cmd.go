package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readPasswordFunc = term.ReadPassword // mockable

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shule",
		Short:         "Shule school-management client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.registerCmd(),
		a.whoamiCmd(),
		a.canCmd(),
		a.featuresCmd(),
	)
	return root
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
