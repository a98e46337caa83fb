package testutil_test

import (
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/cloudmanic/skyclerk-install/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	root := testutil.SetupTestEnv(t)

	vars := []string{
		"HOME",
		"XDG_CONFIG_HOME",
		"XDG_CACHE_HOME",
		"SKYCLERK_INSTALL_BIN_DIR",
		"SKYCLERK_INSTALL_CACHE_DIR",
	}

	for _, v := range vars {
		val := os.Getenv(v)
		if val == "" {
			t.Errorf("%s not set", v)
			continue
		}
		if !strings.HasPrefix(val, root) {
			t.Errorf("%s = %q is not under temp root %q", v, val, root)
		}
	}

	if os.Getenv("GITHUB_TOKEN") != "" {
		t.Error("GITHUB_TOKEN should be cleared")
	}

	if _, err := os.Stat(os.Getenv("SKYCLERK_INSTALL_BIN_DIR")); err != nil {
		t.Errorf("bin dir not created: %v", err)
	}
}

func TestWriteFakeBinary(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		exitCode int
	}{
		{name: "success", output: "skyclerk version 1.2.3", exitCode: 0},
		{name: "failure", output: "boom", exitCode: 3},
		{name: "quotes", output: "it's 'quoted'", exitCode: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFakeBinary(t, t.TempDir(), "skyclerk", tt.output, tt.exitCode)

			out, err := exec.Command(path, "version").CombinedOutput()
			if tt.exitCode == 0 && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.exitCode != 0 {
				exitErr, ok := err.(*exec.ExitError)
				if !ok {
					t.Fatalf("expected exit error, got %v", err)
				}
				if exitErr.ExitCode() != tt.exitCode {
					t.Errorf("exit code = %d, want %d", exitErr.ExitCode(), tt.exitCode)
				}
			}
			if got := strings.TrimSpace(string(out)); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}
		})
	}
}

func TestArtifactServer(t *testing.T) {
	srv := testutil.NewArtifactServer(t, map[string][]byte{
		"/download/skyclerk-linux-amd64": []byte("binary"),
	})

	resp, err := http.Get(srv.URL("/download/skyclerk-linux-amd64"))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL("/download/missing"))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	if n := srv.Requests("/download/skyclerk-linux-amd64"); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
	if ua := srv.Header("/download/skyclerk-linux-amd64").Get("User-Agent"); ua == "" {
		t.Error("expected User-Agent to be recorded")
	}
}
