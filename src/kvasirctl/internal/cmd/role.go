package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kvasir-auth/kvasir/src/kvasirctl/internal/output"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles and grants",
}

var roleCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new role",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoleCreate,
}

var roleShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a role by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoleShow,
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all roles",
	RunE:  runRoleList,
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign <user-id> <role-id>",
	Short: "Grant a role to a user (idempotent)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoleAssign,
}

func init() {
	roleCmd.AddCommand(roleCreateCmd)
	roleCmd.AddCommand(roleShowCmd)
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleAssignCmd)

	roleCreateCmd.Flags().StringArrayP("permission", "P", nil,
		"Permission entry as key=value (repeatable; value parsed as JSON when possible)")
}

// parsePermissions turns repeated key=value flags into a permissions payload.
// Values are decoded as JSON when they parse, kept as strings otherwise.
func parsePermissions(entries []string) (map[string]interface{}, error) {
	permissions := map[string]interface{}{}
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid permission %q, expected key=value", entry)
		}

		var decoded interface{}
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		permissions[key] = decoded
	}
	return permissions, nil
}

func runRoleCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	entries, _ := cmd.Flags().GetStringArray("permission")
	permissions, err := parsePermissions(entries)
	if err != nil {
		return err
	}

	role := roleManager().CreateRole(name, permissions)
	if role == nil {
		return fmt.Errorf("failed to create role %s", name)
	}

	if jsonOutput() {
		return output.PrintJSON(role)
	}
	output.PrintMessage(fmt.Sprintf("Role %s created (%d)", role.Name, role.ID))
	return nil
}

func runRoleShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	role := roleManager().GetRoleByName(name)
	if role == nil {
		return fmt.Errorf("role %s not found", name)
	}

	if jsonOutput() {
		return output.PrintJSON(role)
	}

	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return err
	}
	output.PrintTable(
		[]string{"ID", "NAME", "PERMISSIONS"},
		[][]string{{fmt.Sprintf("%d", role.ID), role.Name, string(permissions)}},
	)
	return nil
}

func runRoleList(cmd *cobra.Command, args []string) error {
	roles := roleManager().ListRoles()

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

func runRoleAssign(cmd *cobra.Command, args []string) error {
	userID := args[0]

	roleID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid role id %q", args[1])
	}

	if !roleManager().AssignRoleToUser(userID, roleID) {
		return fmt.Errorf("failed to assign role %d to user %s", roleID, userID)
	}

	output.PrintMessage(fmt.Sprintf("Role %d granted to user %s", roleID, userID))
	return nil
}
