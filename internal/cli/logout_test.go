package cli

import (
	"io"
	"testing"
)

func TestLogoutClearsKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Save a config with an API key
	cfg := CLIConfig{APIKey: "shed_testkey123", ServerURL: "http://myhost:9090", BoardID: "b1"}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := runLogout(io.Discard); err != nil {
		t.Fatalf("logout: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.APIKey != "" {
		t.Errorf("api_key = %q, want empty after logout", loaded.APIKey)
	}
	// Server URL and board should be preserved
	if loaded.ServerURL != "http://myhost:9090" || loaded.BoardID != "b1" {
		t.Errorf("config = %+v, want server and board preserved", loaded)
	}
}

func TestLogoutWhenNotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand("logout")
	if err != nil {
		t.Fatalf("logout with no config: %v", err)
	}
	if out != "Not logged in.\n" {
		t.Errorf("output = %q", out)
	}
}
