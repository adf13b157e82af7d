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

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
		Long:  "Create and list API keys in the local database. Run on the server host to bootstrap CLI access.",
	}

	var name string
	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an API key for a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalDB(func(d *db.DB, cfg config.Config) error {
				return runKeyCreate(cmd.OutOrStdout(), auth.NewMemberStore(d, cfg.AdminEmail), auth.NewAPIKeyStore(d), args[0], name)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "CLI", "key name")

	list := &cobra.Command{
		Use:   "list <email>",
		Short: "List a member's API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalDB(func(d *db.DB, cfg config.Config) error {
				return runKeyList(cmd.OutOrStdout(), auth.NewAPIKeyStore(d), args[0])
			})
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func runKeyCreate(w io.Writer, members *auth.MemberStore, keys *auth.APIKeyStore, email, name string) error {
	if !members.IsAuthorized(email) {
		return fmt.Errorf("%s is not a member (add with 'shed user add')", email)
	}

	raw, key, err := keys.Create(name, email)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, map[string]any{"key": raw, "api_key": key})
	}
	fmt.Fprintf(w, "✓ Created key %q for %s.\n", key.Name, email)
	fmt.Fprintf(w, "\n  %s\n\n", raw)
	fmt.Fprintln(w, "This key is shown once. Use it with 'shed login --key'.")
	return nil
}

func runKeyList(w io.Writer, keys *auth.APIKeyStore, email string) error {
	list, err := keys.List(email)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No API keys.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range list {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			k.ID, k.Name, k.KeyPrefix, k.CreatedAt.Format("2006-01-02"), lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}
