package formula

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

// Formula describes one installable binary.
type Formula struct {
	Name     string `yaml:"name"`
	Desc     string `yaml:"desc"`
	Homepage string `yaml:"homepage"`
	License  string `yaml:"license"`

	// Version is a release tag or "latest". Latest is never pinned.
	Version string `yaml:"version"`

	// Binary is the file name the artifact is installed as.
	Binary string `yaml:"binary"`

	// SignatureSuffix, when set, names a detached OpenPGP signature
	// published next to each artifact (URL + suffix).
	SignatureSuffix string `yaml:"signature_suffix,omitempty"`

	Artifacts ArtifactTable `yaml:"-"`

	Test TestSpec `yaml:"test"`
}

// Artifact is one downloadable pre-built binary.
type Artifact struct {
	URL string
	// SHA256 is an optional hex digest checked after download.
	SHA256 string
}

// ArtifactTable maps each platform key to exactly one artifact.
// It is populated when a formula is defined and never mutated afterwards.
type ArtifactTable map[platform.Key]Artifact

// TestSpec is the post-install smoke test.
type TestSpec struct {
	Args   []string `yaml:"args"`
	Expect string   `yaml:"expect"`
}

// InstallSpec is the resolved input to a single install run.
type InstallSpec struct {
	SourceURL       string
	LocalBinaryName string
	SHA256          string
}

// Keys returns the table's keys with the published platforms first,
// then any others in lexical order.
func (t ArtifactTable) Keys() []platform.Key {
	rank := make(map[platform.Key]int)
	for i, k := range platform.SupportedKeys() {
		rank[k] = i + 1
	}

	keys := make([]platform.Key, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank[keys[i]], rank[keys[j]]
		switch {
		case ri != 0 && rj != 0:
			return ri < rj
		case ri != 0:
			return true
		case rj != 0:
			return false
		default:
			return keys[i].String() < keys[j].String()
		}
	})
	return keys
}

// binaryNamePattern restricts installed binary names to a single safe path segment.
var binaryNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate checks the formula's invariants.
func (f *Formula) Validate() error {
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "name cannot be empty"}
	}
	if f.License == "" {
		return &ValidationError{Field: "license", Message: "license cannot be empty"}
	}
	if f.Version == "" {
		return &ValidationError{Field: "version", Message: "version cannot be empty"}
	}
	if !binaryNamePattern.MatchString(f.Binary) {
		return &ValidationError{Field: "binary", Message: fmt.Sprintf("invalid binary name %q", f.Binary)}
	}
	if f.Homepage != "" {
		if u, err := url.Parse(f.Homepage); err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			return &ValidationError{Field: "homepage", Message: fmt.Sprintf("invalid homepage %q", f.Homepage)}
		}
	}

	if len(f.Artifacts) == 0 {
		return &ValidationError{Field: "artifacts", Message: "at least one artifact is required"}
	}
	if len(f.Artifacts) > MaxArtifacts {
		return &ValidationError{
			Field:   "artifacts",
			Message: fmt.Sprintf("too many artifacts (%d), maximum is %d", len(f.Artifacts), MaxArtifacts),
		}
	}

	for _, key := range f.Artifacts.Keys() {
		a := f.Artifacts[key]
		field := "artifacts[" + key.String() + "]"
		if err := validateArtifactURL(a.URL); err != nil {
			return &ValidationError{Field: field + ".url", Message: err.Error(), Err: err}
		}
		if a.SHA256 != "" {
			if b, err := hex.DecodeString(a.SHA256); err != nil || len(b) != 32 {
				return &ValidationError{Field: field + ".sha256", Message: "must be 64 hex characters"}
			}
		}
	}

	if f.Test.Expect == "" {
		return &ValidationError{Field: "test.expect", Message: "expected output cannot be empty"}
	}

	return nil
}

// applyDefaults fills fields a formula may omit.
func (f *Formula) applyDefaults() {
	if f.Binary == "" {
		f.Binary = f.Name
	}
	if f.Version == "" {
		f.Version = "latest"
	}
	if len(f.Test.Args) == 0 {
		f.Test.Args = []string{DefaultTestArg}
	}
	if f.Test.Expect == "" && f.Binary != "" {
		f.Test.Expect = f.Binary + " version"
	}
}

// validateArtifactURL checks that an artifact URL is absolute http(s) and
// carries a file name.
func validateArtifactURL(raw string) error {
	if raw == "" {
		return &MalformedURLError{URL: raw, Reason: "empty URL"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &MalformedURLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return &MalformedURLError{URL: raw, Reason: "scheme must be http or https"}
	}
	if _, err := DeriveBinaryName(raw); err != nil {
		return err
	}
	return nil
}

// IsUnsupportedPlatform reports whether err is an UnsupportedPlatformError.
func IsUnsupportedPlatform(err error) bool {
	var target *UnsupportedPlatformError
	return errors.As(err, &target)
}

// IsMalformedURL reports whether err is a MalformedURLError.
func IsMalformedURL(err error) bool {
	var target *MalformedURLError
	return errors.As(err, &target)
}
