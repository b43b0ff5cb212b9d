package cmd

import (
	"fmt"

	"mcpadmin/models"
	"mcpadmin/rbac"

	"github.com/spf13/cobra"
)

func newPermissionsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "List what the active role may do",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.signedIn(contextOf(cmd))
			if err != nil {
				return err
			}
			printPermissions(cmd.OutOrStdout(), opts.output, state.ActiveRole, a.Session.Permissions())
			return nil
		},
	}
}

func newCanCommand(opts *options) *cobra.Command {
	var (
		mode    string
		ownerID string
	)

	cmd := &cobra.Command{
		Use:   "can <permission>...",
		Short: "Check permissions for the active role",
		Long: `Check one or more permissions against the active role. Exits non-zero
when the check is denied.

Examples:
  mcpadmin can organization:update
  mcpadmin can member:invite member:remove --mode any
  mcpadmin can mcp_server_bundle:delete --owner u_123`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			perms := make([]rbac.Permission, 0, len(args))
			for _, name := range args {
				perm, ok := rbac.ParsePermission(name)
				if !ok {
					return fmt.Errorf("unknown permission %q", name)
				}
				perms = append(perms, perm)
			}
			m := rbac.Mode(mode)
			if m != rbac.ModeAll && m != rbac.ModeAny {
				return fmt.Errorf("unknown mode %q, expected all or any", mode)
			}

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.signedIn(contextOf(cmd))
			if err != nil {
				return err
			}

			allowed := evaluate(a, perms, m, ownerID)
			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				printJSON(out, map[string]interface{}{"allowed": allowed, "active_role": state.ActiveRole, "mode": m})
			} else if allowed {
				green.Fprintf(out, "allowed")
				dim.Fprintf(out, " as %s\n", state.ActiveRole)
			} else {
				red.Fprintf(out, "denied")
				dim.Fprintf(out, " as %s\n", state.ActiveRole)
			}

			if !allowed {
				return models.ErrPermissionDenied
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(rbac.ModeAll), "combine checks with all or any")
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner of the resource, for -own permissions")
	return cmd
}

func evaluate(a *app, perms []rbac.Permission, mode rbac.Mode, ownerID string) bool {
	if ownerID == "" {
		return a.Session.CheckPermission(perms, mode)
	}
	for _, p := range perms {
		ok := a.Session.CanActOn(p, ownerID)
		if ok && mode == rbac.ModeAny {
			return true
		}
		if !ok && mode == rbac.ModeAll {
			return false
		}
	}
	return mode == rbac.ModeAll
}
