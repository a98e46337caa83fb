package formula

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

func TestGenerator_RoundTrip(t *testing.T) {
	orig := Skyclerk()
	orig.SignatureSuffix = ".sig"
	key := platform.Key{Family: platform.FamilyLinux, Arch: platform.ArchIntel}
	a := orig.Artifacts[key]
	a.SHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	orig.Artifacts[key] = a

	code, err := NewGenerator().Generate(orig)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	parsed, err := NewParser(nil).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString(generated) error = %v\n%s", err, code)
	}

	if parsed.Name != orig.Name || parsed.Desc != orig.Desc || parsed.Homepage != orig.Homepage ||
		parsed.License != orig.License || parsed.Version != orig.Version || parsed.Binary != orig.Binary ||
		parsed.SignatureSuffix != orig.SignatureSuffix {
		t.Errorf("metadata mismatch:\ngot:  %+v\nwant: %+v", parsed, orig)
	}
	if len(parsed.Artifacts) != len(orig.Artifacts) {
		t.Fatalf("got %d artifacts, want %d", len(parsed.Artifacts), len(orig.Artifacts))
	}
	for k, want := range orig.Artifacts {
		if parsed.Artifacts[k] != want {
			t.Errorf("artifact %s = %+v, want %+v", k, parsed.Artifacts[k], want)
		}
	}
	if parsed.Test.Expect != orig.Test.Expect || strings.Join(parsed.Test.Args, " ") != "version" {
		t.Errorf("test = %+v, want %+v", parsed.Test, orig.Test)
	}
}

func TestGenerator_StableOrder(t *testing.T) {
	g := NewGenerator()
	first, _ := g.Generate(Skyclerk())
	for i := 0; i < 10; i++ {
		again, _ := g.Generate(Skyclerk())
		if again != first {
			t.Fatal("Generate() output is not stable across calls")
		}
	}

	macARM := strings.Index(first, "skyclerk-darwin-arm64")
	linuxIntel := strings.Index(first, "skyclerk-linux-amd64")
	if macARM < 0 || linuxIntel < 0 || macARM > linuxIntel {
		t.Errorf("artifacts not in published order:\n%s", first)
	}
}

func TestGenerator_Nil(t *testing.T) {
	if _, err := NewGenerator().Generate(nil); err == nil {
		t.Error("expected error for nil formula")
	}
}

func TestQuoteLuaString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"new\nline", `"new\nline"`},
	}
	for _, tt := range tests {
		if got := quoteLuaString(tt.in); got != tt.want {
			t.Errorf("quoteLuaString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
