package main

import (
	"context"
	"fmt"

	"siacom-console/internal/guard"
	"siacom-console/internal/models"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or change the stored credentials",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current role and bound patient",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		sess, err := store.Get(ctx)
		if err != nil {
			return err
		}
		views := guard.ViewsFor(sess.Role)

		if jsonOutput {
			return printJSON(map[string]any{
				"role":       sess.Role,
				"patient_id": sess.PatientID,
				"view_set":   views.Name,
				"entry":      views.Entry,
			})
		}
		fmt.Printf("Role:     %s\n", sess.Role)
		if sess.PatientID != "" {
			fmt.Printf("Patient:  %s\n", sess.PatientID)
		}
		fmt.Printf("Views:    %s (entry %s)\n", views.Name, views.Entry)
		return nil
	},
}

var sessionAdminCmd = &cobra.Command{
	Use:   "admin <token>",
	Short: "Store an admin credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.SetAdminSession(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Admin session stored")
		return nil
	},
}

var sessionFamilyCmd = &cobra.Command{
	Use:   "family <token> <patient-id>",
	Short: "Store a family credential bound to a patient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.SetFamilySession(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Family session stored for patient %s\n", args[1])
		return nil
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:       "logout [admin|family|all]",
	Short:     "Clear stored credentials (default: all)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"admin", "family", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.RoleAnonymous
		if len(args) == 1 {
			switch args[0] {
			case "admin":
				role = models.RoleAdmin
			case "family":
				role = models.RoleFamily
			case "all":
			default:
				return fmt.Errorf("unknown session %q (must be admin, family or all)", args[0])
			}
		}

		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Clear(ctx, role); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <path>",
	Short: "Resolve a navigation path against the current role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		sess, err := store.Get(ctx)
		if err != nil {
			return err
		}
		d := guard.ResolvePath(sess.Role, args[0])

		if jsonOutput {
			return printJSON(d)
		}
		if d.Allowed {
			fmt.Printf("%s: allowed (%s views)\n", d.Path, d.View)
		} else {
			fmt.Printf("%s: redirect to %s (%s views)\n", d.Path, d.RedirectTo, d.View)
		}
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionAdminCmd, sessionFamilyCmd, sessionLogoutCmd)
}
