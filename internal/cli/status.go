package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(w io.Writer) error {
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Fprintf(w, "Server:  %s\n", serverURL)

	c := client.New(serverURL, apiKey)
	if err := c.Health(); err != nil {
		fmt.Fprintf(w, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}

	if apiKey == "" {
		fmt.Fprintln(w, "API Key: not configured")
		fmt.Fprintln(w, "Status:  ✓ connected (browsing only)")
		fmt.Fprintln(w, "\nRun 'shed login' to register items and track rentals.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	fmt.Fprintf(w, "API Key: %s…\n", prefix)

	me, err := c.Me()
	var apiErr *client.Error
	switch {
	case err == nil && me.Member:
		fmt.Fprintf(w, "Status:  ✓ connected as %s\n", me.Email)
	case err == nil:
		fmt.Fprintf(w, "Status:  ✗ %s is not a member\n", me.Email)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		fmt.Fprintln(w, "Status:  ✗ invalid API key")
		fmt.Fprintln(w, "\nRun 'shed login' to re-authenticate.")
	default:
		fmt.Fprintf(w, "Status:  ✗ unexpected response (%v)\n", err)
	}

	return nil
}
