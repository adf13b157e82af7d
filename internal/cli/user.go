package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/auth"
	"github.com/evcraddock/rentshed/internal/config"
	"github.com/evcraddock/rentshed/internal/db"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage members",
		Long:  "Add, list and remove members in the local database. Members can register items and have their rentals recorded.",
	}

	var name, location string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMembers(func(members *auth.MemberStore) error {
				return runUserAdd(cmd.OutOrStdout(), members, args[0], name, location)
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&location, "location", "", "home location code or name (e.g. hannam)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMembers(func(members *auth.MemberStore) error {
				return runUserList(cmd.OutOrStdout(), members)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalDB(func(d *db.DB, cfg config.Config) error {
				return runUserRemove(cmd.OutOrStdout(), auth.NewMemberStore(d, cfg.AdminEmail), auth.NewSessionStore(d, false), args[0])
			})
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

// withLocalDB loads server config, opens the database and runs fn.
func withLocalDB(fn func(d *db.DB, cfg config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)
	return fn(database, cfg)
}

func withMembers(fn func(members *auth.MemberStore) error) error {
	return withLocalDB(func(d *db.DB, cfg config.Config) error {
		return fn(auth.NewMemberStore(d, cfg.AdminEmail))
	})
}

func runUserAdd(w io.Writer, members *auth.MemberStore, email, name, location string) error {
	if location != "" {
		code, err := parseLocation(location, false)
		if err != nil {
			return err
		}
		location = code
	}

	m, err := members.Add(email, name, location)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, m)
	}
	fmt.Fprintf(w, "✓ Added member %s.\n", m.Email)
	return nil
}

func runUserList(w io.Writer, members *auth.MemberStore) error {
	list, err := members.List()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No members.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "EMAIL\tNAME\tLOCATION\tSINCE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, m := range list {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			m.Email, m.Name, m.Location, m.CreatedAt.Format("2006-01-02")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// runUserRemove deletes the member and signs them out of every browser.
func runUserRemove(w io.Writer, members *auth.MemberStore, sessions *auth.SessionStore, email string) error {
	if err := members.Delete(email); err != nil {
		return err
	}
	n, err := sessions.Revoke(email)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Removed %s.\n", email)
	if n > 0 {
		fmt.Fprintf(w, "  Signed out of %d browser session(s).\n", n)
	}
	return nil
}
