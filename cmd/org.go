package cmd

import (
	"fmt"

	"mcpadmin/models"

	"github.com/spf13/cobra"
)

func newOrgCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "List, switch and create organizations",
	}
	cmd.AddCommand(
		newOrgListCommand(opts),
		newOrgSwitchCommand(opts),
		newOrgCreateCommand(opts),
	)
	return cmd
}

func newOrgListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the organizations you belong to",
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
			printOrganizations(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	}
}

func newOrgSwitchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <organization-id>",
		Short: "Make another organization active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := contextOf(cmd)
			if _, err := a.signedIn(ctx); err != nil {
				return err
			}
			state, err := a.Session.SwitchOrganization(ctx, args[0])
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	}
}

func newOrgCreateCommand(opts *options) *cobra.Command {
	var req models.CreateOrganizationRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := contextOf(cmd)
			if _, err := a.signedIn(ctx); err != nil {
				return err
			}
			org, err := a.Services.GetOrganizationService().CreateOrganization(ctx, req)
			if err != nil {
				return err
			}

			// reload so the new membership is listed
			if _, err := a.Session.Bootstrap(ctx); err != nil {
				a.logger.Warnf("Organization created but session reload failed: %v", err)
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				printJSON(out, org)
				return nil
			}
			green.Fprintf(out, "Created organization %s", org.Name)
			dim.Fprintf(out, " (%s)\n", org.OrganizationID)
			fmt.Fprintf(out, "Switch to it with 'mcpadmin org switch %s'\n", org.OrganizationID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "organization name")
	cmd.Flags().StringVar(&req.Description, "description", "", "organization description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRoleCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage the role you act as",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch an Admin between acting as Admin and as Member",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := contextOf(cmd)
			before, err := a.signedIn(ctx)
			if err != nil {
				return err
			}
			if _, err := a.Session.ToggleActiveRole(ctx); err != nil {
				return err
			}

			state := a.Session.GetState()
			if opts.output == outputJSON {
				printJSON(cmd.OutOrStdout(), state)
				return nil
			}
			if state.ActiveRole == before.ActiveRole {
				yellow.Fprintf(cmd.OutOrStdout(), "Role unchanged: only Admins can act as Member\n")
				return nil
			}
			printState(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	})
	return cmd
}
