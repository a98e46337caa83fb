// Package testutil provides utilities for testing skyclerk-install in isolation.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// SetupTestEnv creates isolated directories and environment for a test so
// it never touches the user's real bin dir, cache or config file.
// Returns the temp root. Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))

	t.Setenv("SKYCLERK_INSTALL_BIN_DIR", filepath.Join(tmpDir, "bin"))
	t.Setenv("SKYCLERK_INSTALL_CACHE_DIR", filepath.Join(tmpDir, "cache", "skyclerk-install"))

	// Never send real credentials from a test
	t.Setenv("SKYCLERK_INSTALL_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	dirs := []string{
		filepath.Join(tmpDir, "home"),
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "bin"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}

// SkipIfNoShell skips tests that execute shell-script fake binaries.
func SkipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries are shell scripts")
	}
}

// FakeBinaryScript returns a shell script that prints output and exits
// with exitCode.
func FakeBinaryScript(output string, exitCode int) []byte {
	quoted := "'" + strings.ReplaceAll(output, "'", `'\''`) + "'"
	return []byte(fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' %s\nexit %d\n", quoted, exitCode))
}

// WriteFakeBinary writes an executable fake binary to dir/name.
func WriteFakeBinary(t *testing.T, dir, name, output string, exitCode int) string {
	t.Helper()
	SkipIfNoShell(t)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, FakeBinaryScript(output, exitCode), 0o755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}
	return path
}

// ArtifactServer serves fixed release assets and counts requests per path.
type ArtifactServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests map[string]int
	headers  map[string]http.Header
}

// NewArtifactServer starts a server serving files keyed by URL path
// (e.g. "/download/skyclerk-linux-amd64"). It is closed on test cleanup.
func NewArtifactServer(t *testing.T, files map[string][]byte) *ArtifactServer {
	t.Helper()

	s := &ArtifactServer{
		files:    files,
		requests: make(map[string]int),
		headers:  make(map[string]http.Header),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *ArtifactServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	s.headers[r.URL.Path] = r.Header.Clone()
	body, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(body)
}

// URL returns the absolute URL for path on the server.
func (s *ArtifactServer) URL(path string) string {
	return s.Server.URL + path
}

// Requests returns how many times path was requested.
func (s *ArtifactServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Header returns the headers of the last request for path.
func (s *ArtifactServer) Header(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[path]
}
