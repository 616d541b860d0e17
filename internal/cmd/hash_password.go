package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"clothsy/internal/validate"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for use in ADMIN_USERS",
	Long: `Reads the password from the argument or, when omitted, from the first
line of stdin, and prints a bcrypt hash that can replace the plain password in
ADMIN_USERS ("admin1:$2a$10$...").`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pass string
		if len(args) == 1 {
			pass = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			pass = strings.TrimRight(line, "\r\n")
		}
		if !validate.Password(pass) {
			return fmt.Errorf("password must be 8 to 72 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
