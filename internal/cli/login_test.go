package cli

import (
	"io"
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "shed_abc123def456", false},
		{"empty key", "", true},
		{"missing prefix", "abc123def456", true},
		{"wrong prefix", "hf_abc123", true},
		{"just prefix", "shed_", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKey(%q) err = %v, wantErr = %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestLoginSavesKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{ServerURL: "http://old:1", BoardID: "old-board"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := runLogin(io.Discard, "", "  shed_abc  "); err != nil {
		t.Fatalf("login: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "shed_abc" || cfg.BoardID != "old-board" {
		t.Errorf("config = %+v", cfg)
	}

	// A new server forgets the old server's board.
	if err := runLogin(io.Discard, "http://new:2", "shed_abc"); err != nil {
		t.Fatalf("login: %v", err)
	}
	cfg, _ = loadConfig()
	if cfg.ServerURL != "http://new:2" || cfg.BoardID != "" {
		t.Errorf("config after server change = %+v", cfg)
	}
}

func TestLoginRejectsBadKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("login", "--key", "hf_old")
	if err == nil || !strings.Contains(err.Error(), "shed_") {
		t.Fatalf("err = %v", err)
	}
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("shed_pasted\n"))
	if err != nil || got != "shed_pasted" {
		t.Errorf("readLine = %q, %v", got, err)
	}
	got, err = readLine(strings.NewReader("shed_noeol"))
	if err != nil || got != "shed_noeol" {
		t.Errorf("readLine without newline = %q, %v", got, err)
	}
	if _, err := readLine(strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
}
