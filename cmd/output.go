package cmd

import (
	"fmt"
	"io"

	"mcpadmin/models"
	"mcpadmin/rbac"
	"mcpadmin/utils"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	cyan   = color.New(color.FgCyan)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	dim    = color.New(color.Faint)
)

func printJSON(w io.Writer, v interface{}) {
	fmt.Fprintln(w, utils.PrintPrettyJSON(v))
}

// printState renders a session snapshot
func printState(w io.Writer, output string, state models.SessionState) {
	if output == outputJSON {
		printJSON(w, state)
		return
	}

	switch state.Status {
	case models.SessionReady:
		green.Fprintf(w, "Signed in")
	case models.SessionNoOrganization:
		yellow.Fprintf(w, "Signed in")
	default:
		red.Fprintf(w, "Not signed in")
	}
	dim.Fprintf(w, " (%s)\n", state.Status)

	if state.User != nil {
		fmt.Fprintf(w, "User:         %s <%s>\n", state.User.Name, state.User.Email)
	}
	if state.ActiveOrganization != nil {
		fmt.Fprintf(w, "Organization: ")
		cyan.Fprintf(w, "%s", state.ActiveOrganization.OrgName)
		dim.Fprintf(w, " (%s)\n", state.ActiveOrganization.OrgID)
		fmt.Fprintf(w, "Role:         %s", state.ActiveRole)
		if state.RoleOverride != nil {
			yellow.Fprintf(w, " (acting as, true role %s)", state.ActiveOrganization.UserRole)
		}
		fmt.Fprintln(w)
	} else if state.Status == models.SessionNoOrganization {
		yellow.Fprintln(w, "No organization yet. Create one with 'mcpadmin org create --name <name>'.")
	}
	if state.LastError != "" {
		red.Fprintf(w, "Last error:   %s\n", state.LastError)
	}
}

// printOrganizations lists memberships, marking the active one
func printOrganizations(w io.Writer, output string, state models.SessionState) {
	var orgs []models.OrganizationMembership
	if state.User != nil {
		orgs = state.User.Organizations
	}
	if output == outputJSON {
		if orgs == nil {
			orgs = []models.OrganizationMembership{}
		}
		printJSON(w, orgs)
		return
	}

	if len(orgs) == 0 {
		yellow.Fprintln(w, "No organizations")
		return
	}
	for _, org := range orgs {
		marker := "  "
		if state.ActiveOrganization != nil && state.ActiveOrganization.OrgID == org.OrganizationID {
			marker = green.Sprint("* ")
		}
		fmt.Fprintf(w, "%s%-24s %-10s %s\n", marker, org.OrganizationName, org.Role, dim.Sprint(org.OrganizationID))
	}
}

func printPermissions(w io.Writer, output string, role models.Role, perms []rbac.Permission) {
	if output == outputJSON {
		printJSON(w, map[string]interface{}{"active_role": role, "permissions": perms})
		return
	}

	cyan.Fprintf(w, "Permissions for %s\n", role)
	var resource rbac.Resource
	for _, p := range perms {
		if p.Resource() != resource {
			resource = p.Resource()
			fmt.Fprintf(w, "  %s\n", resource)
		}
		fmt.Fprintf(w, "    %s\n", p.Action())
	}
}
