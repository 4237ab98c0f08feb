package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the tracklog server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Print("Username: ")
		var username string
		_, _ = fmt.Scanln(&username)

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()

		sess, err := svc.Login(cmd.Context(), strings.TrimSpace(username), string(password))
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as %s.\n", sess.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
