package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/evcraddock/rentshed/internal/client"
)

// currentBoard returns the board remembered in the CLI config, starting a
// new one when none is saved or the server no longer has it.
func currentBoard(c *client.Client) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}

	if cfg.BoardID != "" {
		_, err := c.GetBoard(cfg.BoardID)
		if err == nil {
			return cfg.BoardID, nil
		}
		var apiErr *client.Error
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return "", err
		}
	}

	b, err := c.CreateBoard()
	if err != nil {
		return "", fmt.Errorf("starting board: %w", err)
	}
	cfg.BoardID = b.ID
	if err := saveConfig(cfg); err != nil {
		return "", err
	}
	return b.ID, nil
}
