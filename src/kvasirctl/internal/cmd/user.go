package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/kvasir-auth/kvasir/src/kvasir/auth"
	"github.com/kvasir-auth/kvasir/src/kvasirctl/internal/output"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a new user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Show a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

var userRolesCmd = &cobra.Command{
	Use:   "roles <user-id>",
	Short: "List the roles granted to a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserRoles,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <email>",
	Short: "Set a new password for a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPasswd,
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userRolesCmd)
	userCmd.AddCommand(userPasswdCmd)

	userCreateCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	userCreateCmd.Flags().Bool("inactive", false, "Create the account deactivated")
	userCreateCmd.Flags().Bool("verified", false, "Mark the account as verified")

	userPasswdCmd.Flags().StringP("password", "p", "", "New password (prompted when omitted)")
}

// promptPassword reads a password from the terminal without echoing it
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(bytePassword), nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	var opts []auth.CreateOption
	if inactive, _ := cmd.Flags().GetBool("inactive"); inactive {
		opts = append(opts, auth.WithInactive())
	}
	if verified, _ := cmd.Flags().GetBool("verified"); verified {
		opts = append(opts, auth.WithVerified())
	}

	user := userManager().CreateUser(email, password, opts...)
	if user == nil {
		return fmt.Errorf("failed to create user %s", email)
	}

	if jsonOutput() {
		return output.PrintJSON(user)
	}
	output.PrintMessage(fmt.Sprintf("User %s created (%s)", user.Email, user.ID))
	return nil
}

func runUserShow(cmd *cobra.Command, args []string) error {
	email := args[0]

	user := userManager().GetUserByEmail(email)
	if user == nil {
		return fmt.Errorf("user %s not found", email)
	}

	if jsonOutput() {
		return output.PrintJSON(user)
	}
	output.PrintTable(
		[]string{"ID", "EMAIL", "ACTIVE", "VERIFIED", "LAST LOGIN", "CREATED"},
		[][]string{{
			user.ID,
			user.Email,
			output.FormatBool(user.IsActive),
			output.FormatBool(user.IsVerified),
			output.FormatTime(user.LastLogin),
			output.FormatTime(&user.CreatedAt),
		}},
	)
	return nil
}

func runUserRoles(cmd *cobra.Command, args []string) error {
	userID := args[0]

	roles := userManager().GetUserRoles(userID)

	if jsonOutput() {
		return output.PrintJSON(roles)
	}

	rows := make([][]string, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, []string{
			fmt.Sprintf("%d", role.ID),
			role.Name,
			fmt.Sprintf("%d", len(role.Permissions)),
		})
	}
	output.PrintTable([]string{"ID", "NAME", "PERMISSIONS"}, rows)
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		password, err = promptPassword("New password: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	// UpdatePassword expects the canonical hash; hashing happens here
	passwordHash, err := auth.HashPassword(password, viper.GetInt("auth.hash_cost"))
	if err != nil {
		return err
	}

	if !userManager().UpdatePassword(email, passwordHash) {
		return fmt.Errorf("failed to update password for %s", email)
	}

	output.PrintMessage(fmt.Sprintf("Password updated for %s", email))
	return nil
}
