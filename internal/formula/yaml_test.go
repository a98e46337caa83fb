package formula

import (
	"errors"
	"strings"
	"testing"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

func TestParseYAML(t *testing.T) {
	data := `
name: skyclerk
desc: CLI for the Skyclerk bookkeeping API
license: MIT
artifacts:
  - os: darwin
    arch: arm64
    url: https://example.com/download/skyclerk-darwin-arm64
    sha256: E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855
  - os: linux
    arch: x86_64
    url: https://example.com/download/skyclerk-linux-amd64
`

	f, err := ParseYAML([]byte(data))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	if f.Name != "skyclerk" || f.License != "MIT" {
		t.Errorf("metadata = %+v", f)
	}
	if f.Version != "latest" || f.Binary != "skyclerk" {
		t.Errorf("defaults not applied: version=%q binary=%q", f.Version, f.Binary)
	}

	mac := f.Artifacts[platform.Key{Family: platform.FamilyMac, Arch: platform.ArchARM64}]
	if mac.URL != "https://example.com/download/skyclerk-darwin-arm64" {
		t.Errorf("mac URL = %q", mac.URL)
	}
	if mac.SHA256 != strings.ToLower("E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855") {
		t.Errorf("mac SHA256 = %q", mac.SHA256)
	}

	linux, err := f.Artifacts.ResolveURL(platform.Key{Family: platform.FamilyLinux, Arch: platform.ArchIntel})
	if err != nil {
		t.Fatalf("ResolveURL(linux/intel) error = %v", err)
	}
	if !strings.HasSuffix(linux, "/skyclerk-linux-amd64") {
		t.Errorf("linux URL = %q", linux)
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantParse bool
		contains  string
	}{
		{name: "empty", data: "", wantParse: true, contains: "empty document"},
		{name: "invalid yaml", data: "name: [", wantParse: true},
		{name: "unknown field", data: "name: s\nlicence: MIT\n", wantParse: true, contains: "licence"},
		{
			name: "duplicate platform",
			data: `
name: s
license: MIT
artifacts:
  - {os: mac, arch: arm64, url: "https://x/a"}
  - {os: macos, arch: aarch64, url: "https://x/b"}
`,
			contains: "duplicate artifact for mac/arm64",
		},
		{
			name: "missing os",
			data: `
name: s
license: MIT
artifacts:
  - {arch: arm64, url: "https://x/a"}
`,
			contains: "os and arch are required",
		},
		{
			name: "malformed url",
			data: `
name: s
license: MIT
artifacts:
  - {os: mac, arch: arm64, url: "skyclerk"}
`,
			contains: "malformed artifact URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var perr *ParseError
			if tt.wantParse && !errors.As(err, &perr) {
				t.Errorf("error = %T (%v), want *ParseError", err, err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestMarshalYAML(t *testing.T) {
	data, err := MarshalYAML(Skyclerk())
	if err != nil {
		t.Fatalf("MarshalYAML failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "license: MIT") {
		t.Errorf("missing license in output:\n%s", out)
	}
	first := strings.Index(out, "skyclerk-darwin-arm64")
	last := strings.Index(out, "skyclerk-linux-amd64")
	if first < 0 || last < 0 || first > last {
		t.Errorf("artifacts not in stable order:\n%s", out)
	}

	parsed, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML of marshaled formula failed: %v", err)
	}
	for _, key := range platform.SupportedKeys() {
		want, _ := Skyclerk().Artifacts.ResolveURL(key)
		got, err := parsed.Artifacts.ResolveURL(key)
		if err != nil || got != want {
			t.Errorf("%s: got %q, %v; want %q", key, got, err, want)
		}
	}

	if _, err := MarshalYAML(nil); err == nil {
		t.Error("expected error for nil formula")
	}
}
