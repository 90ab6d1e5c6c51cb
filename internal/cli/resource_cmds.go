package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/aams-client/projects"
	"github.com/jrsteele09/aams-client/roles"
	"github.com/jrsteele09/aams-client/users"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage users"}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if search != "" {
				query.Set("search", search)
			}
			all, err := users.NewService(a.client).List(cmd.Context(), query)
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "USERNAME", "NAME", "EMAIL", "DEPARTMENT", "ACTIVE", "STAFF")
			for _, u := range all {
				row(tw, u.ID, u.Username, u.FullName(), u.Email, orDash(u.Department), yesNo(u.IsActive), yesNo(u.IsStaff))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&search, "search", "", "Filter by a search term")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := users.NewService(a.client).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			tw := newTable(a.out, "FIELD", "VALUE")
			row(tw, "id", u.ID)
			row(tw, "username", u.Username)
			row(tw, "name", u.FullName())
			row(tw, "email", u.Email)
			row(tw, "employee id", orDash(u.EmployeeID))
			row(tw, "position", orDash(u.Position))
			row(tw, "department", orDash(u.Department))
			row(tw, "active", yesNo(u.IsActive))
			row(tw, "staff", yesNo(u.IsStaff))
			for _, r := range u.UserRoles {
				row(tw, "role", r.RoleName)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := users.NewService(a.client).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted user %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Manage projects"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := projects.NewService(a.client).List(cmd.Context(), nil)
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "NAME", "ACTIVE", "USERS")
			for _, p := range all {
				row(tw, p.ID, p.Name, yesNo(p.IsActive), p.UserCount)
			}
			return tw.Flush()
		},
	}

	var active bool
	toggle := &cobra.Command{
		Use:   "toggle ID",
		Short: "Activate or deactivate a project, flipping it when --active is not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc := projects.NewService(a.client)
			want := active
			if !cmd.Flags().Changed("active") {
				current, err := svc.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				want = !current.IsActive
			}
			p, err := svc.ToggleStatus(cmd.Context(), id, want)
			if err != nil {
				return err
			}
			state := "inactive"
			if p.IsActive {
				state = "active"
			}
			fmt.Fprintf(a.out, "Project %d %q is now %s\n", p.ID, p.Name, state)
			return nil
		},
	}
	toggle.Flags().BoolVar(&active, "active", false, "Target status")

	cmd.AddCommand(list, toggle)
	return cmd
}

func newRolesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "roles", Short: "Manage roles"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := roles.NewService(a.client).List(cmd.Context(), nil)
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "NAME", "ACTIVE", "PERMISSIONS", "USERS")
			for _, r := range all {
				row(tw, r.ID, r.Name, yesNo(r.IsActive), r.PermissionCount, r.UserCount)
			}
			return tw.Flush()
		},
	})
	return cmd
}

func newPermissionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "permissions", Short: "Inspect permissions"}
	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List permission categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := roles.NewPermissionService(a.client).Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintln(a.out, c)
			}
			return nil
		},
	})
	return cmd
}
