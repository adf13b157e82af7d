package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusServerDown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHED_API_KEY", "shed_ab")
	t.Setenv("SHED_SERVER_URL", "http://127.0.0.1:1")

	var buf bytes.Buffer
	if err := runStatus(&buf); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(buf.String(), "cannot reach server") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestStatus(t *testing.T) {
	ts, raw := liveServer(t)

	tests := []struct {
		name string
		key  string
		want []string
	}{
		{"no key", "", []string{"API Key: not configured", "browsing only"}},
		{"short key", "shed_ab", []string{"API Key: shed_ab…", "invalid API key"}},
		{"member", raw, []string{"connected as bob@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("SHED_SERVER_URL", ts)
			t.Setenv("SHED_API_KEY", tt.key)

			out, err := executeCommand("status")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestStatusUnexpectedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHED_SERVER_URL", ts.URL)
	t.Setenv("SHED_API_KEY", "shed_testapikey1234567890")

	var buf bytes.Buffer
	if err := runStatus(&buf); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(buf.String(), "API Key: shed_testa…") || !strings.Contains(buf.String(), "unexpected response (boom)") {
		t.Errorf("output = %q", buf.String())
	}
}
