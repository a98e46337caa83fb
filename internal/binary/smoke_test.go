package binary

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudmanic/skyclerk-install/internal/formula"
	"github.com/cloudmanic/skyclerk-install/internal/testutil"
)

func TestSmokeTest(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		exitCode   int
		wantPassed bool
	}{
		{name: "release_build", output: "skyclerk version 1.4.0", wantPassed: true},
		{name: "dev_build", output: "skyclerk version dev", wantPassed: true},
		{name: "output_with_banner", output: "Skyclerk CLI\nskyclerk version v2.0.1", wantPassed: true},
		{name: "wrong_format", output: "skyclerk v1.0.0", wantPassed: false},
		{name: "empty_output", output: "", wantPassed: false},
		{name: "non_zero_exit_with_match", output: "skyclerk version 1.0.0", exitCode: 1, wantPassed: false},
		{name: "non_zero_exit_without_match", output: "panic: boom", exitCode: 2, wantPassed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binDir := t.TempDir()
			testutil.WriteFakeBinary(t, binDir, "skyclerk", tt.output, tt.exitCode)

			passed, output, err := SmokeTest(context.Background(), binDir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (output %q)", passed, tt.wantPassed, output)
			}
			if tt.output != "" && output != tt.output+"\n" {
				t.Errorf("output = %q, want %q", output, tt.output+"\n")
			}
		})
	}
}

func TestSmokeTestMissingBinary(t *testing.T) {
	passed, _, err := SmokeTest(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if passed {
		t.Error("missing binary must not pass")
	}
}

func TestRunSmokeTest(t *testing.T) {
	binPath := testutil.WriteFakeBinary(t, t.TempDir(), "skyclerk", "skyclerk version 1.2.3", 0)

	t.Run("parses version", func(t *testing.T) {
		res, err := RunSmokeTest(context.Background(), binPath, formula.Skyclerk().Test)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Passed {
			t.Fatal("expected smoke test to pass")
		}
		if res.Version == nil || res.Version.String() != "1.2.3" {
			t.Errorf("Version = %v, want 1.2.3", res.Version)
		}
		if res.ExitCode != 0 {
			t.Errorf("ExitCode = %d, want 0", res.ExitCode)
		}
	})

	t.Run("custom expectation", func(t *testing.T) {
		res, err := RunSmokeTest(context.Background(), binPath, formula.TestSpec{
			Args:   []string{"--version"},
			Expect: "other version",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Passed {
			t.Error("expected smoke test to fail")
		}
		if res.Version != nil {
			t.Error("version should not be parsed for a failed test")
		}
	})

	t.Run("empty expectation", func(t *testing.T) {
		if _, err := RunSmokeTest(context.Background(), binPath, formula.TestSpec{}); err == nil {
			t.Error("expected error for empty expectation")
		}
	})

	t.Run("records exit code", func(t *testing.T) {
		failing := testutil.WriteFakeBinary(t, t.TempDir(), "skyclerk", "usage", 64)
		res, err := RunSmokeTest(context.Background(), failing, formula.Skyclerk().Test)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ExitCode != 64 {
			t.Errorf("ExitCode = %d, want 64", res.ExitCode)
		}
		if res.Passed {
			t.Error("non-zero exit must not pass")
		}
	})
}

func TestRunSmokeTestTimeout(t *testing.T) {
	testutil.SkipIfNoShell(t)
	binPath := filepath.Join(t.TempDir(), "skyclerk")
	writeScript(t, binPath, "#!/bin/sh\nexec sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := RunSmokeTest(ctx, binPath, formula.Skyclerk().Test)
	if err == nil {
		t.Fatal("expected error for hung binary")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("smoke test did not honor the context deadline")
	}
}

func TestParseInstalledVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{name: "plain", output: "skyclerk version 1.4.0\n", want: "1.4.0"},
		{name: "v_prefix", output: "skyclerk version v2.0.1", want: "2.0.1"},
		{name: "short", output: "skyclerk version 1.4", want: "1.4.0"},
		{name: "prerelease", output: "skyclerk version 1.5.0-rc.1 (abc123)", want: "1.5.0-rc.1"},
		{name: "dev", output: "skyclerk version dev", wantErr: true},
		{name: "missing_version", output: "skyclerk version", wantErr: true},
		{name: "no_marker", output: "skyclerk v1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseInstalledVersion(tt.output, "skyclerk version")
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("version = %s, want %s", v, tt.want)
			}
		})
	}
}

func writeScript(t *testing.T, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}
