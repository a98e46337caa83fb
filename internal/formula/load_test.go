package formula

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

func TestLoadFile_Lua(t *testing.T) {
	tests := []struct {
		name  string
		info  *platform.Info
		asset string
	}{
		{"mac arm64", &platform.Info{OS: "darwin", Arch: "arm64"}, "skyclerk-darwin-arm64"},
		{"mac intel", &platform.Info{OS: "darwin", Arch: "amd64"}, "skyclerk-darwin-amd64"},
		{"linux arm64", &platform.Info{OS: "linux", Arch: "arm64"}, "skyclerk-linux-arm64"},
		{"linux intel", &platform.Info{OS: "linux", Arch: "amd64"}, "skyclerk-linux-amd64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(platform.NewStaticDetector(tt.info))
			f, err := LoadFile(context.Background(), p, filepath.Join("testdata", "skyclerk.lua"))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}

			spec, err := f.InstallSpec(tt.info.Key())
			if err != nil {
				t.Fatalf("InstallSpec() error = %v", err)
			}
			if spec.LocalBinaryName != tt.asset {
				t.Errorf("LocalBinaryName = %q, want %q", spec.LocalBinaryName, tt.asset)
			}
			if f.Binary != "skyclerk" {
				t.Errorf("Binary = %q, want skyclerk", f.Binary)
			}
		})
	}
}

func TestLoadFile_LuaUnsupportedHost(t *testing.T) {
	p := NewParser(platform.NewStaticDetector(&platform.Info{OS: "windows", Arch: "amd64"}))
	_, err := LoadFile(context.Background(), p, filepath.Join("testdata", "skyclerk.lua"))
	if err == nil {
		t.Fatal("expected error for a host the formula does not cover")
	}
	if !strings.Contains(err.Error(), "at least one artifact") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadFile_YAMLMatchesBuiltin(t *testing.T) {
	f, err := LoadFile(context.Background(), nil, filepath.Join("testdata", "skyclerk.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	builtin := Skyclerk()
	for _, key := range platform.SupportedKeys() {
		got, err := f.Artifacts.ResolveURL(key)
		if err != nil {
			t.Fatalf("ResolveURL(%s) error = %v", key, err)
		}
		want, _ := builtin.Artifacts.ResolveURL(key)
		if got != want {
			t.Errorf("ResolveURL(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(context.Background(), nil, filepath.Join(dir, "nope.lua")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(dir, "skyclerk.rb")
		if err := os.WriteFile(path, []byte("class Skyclerk < Formula\nend\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFile(context.Background(), nil, path)
		if err == nil || !strings.Contains(err.Error(), "unsupported formula format") {
			t.Errorf("error = %v, want unsupported formula format", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.yaml")
		if err := os.WriteFile(path, []byte(strings.Repeat("#", MaxFormulaSize+10)), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFile(context.Background(), nil, path)
		if err == nil || !strings.Contains(err.Error(), "formula too large") {
			t.Errorf("error = %v, want formula too large", err)
		}
	})
}
