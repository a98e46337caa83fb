package formula

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
	"gopkg.in/yaml.v3"
)

// yamlFormula is the on-disk YAML shape. Artifacts are a list so that
// duplicates can be detected instead of silently overwritten.
type yamlFormula struct {
	Formula   `yaml:",inline"`
	Artifacts []yamlArtifact `yaml:"artifacts"`
}

type yamlArtifact struct {
	OS     string `yaml:"os"`
	Arch   string `yaml:"arch"`
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256,omitempty"`
}

// ParseYAML parses a YAML formula. Unknown fields are rejected.
func ParseYAML(data []byte) (*Formula, error) {
	if len(data) > MaxFormulaSize {
		return nil, &ParseError{
			Message: "formula too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(data), MaxFormulaSize),
		}
	}

	var doc yamlFormula
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "YAML error", Detail: "empty document"}
		}
		return nil, &ParseError{Message: "YAML error", Detail: err.Error(), Err: err}
	}

	f := doc.Formula
	f.Artifacts = make(ArtifactTable, len(doc.Artifacts))
	for i, a := range doc.Artifacts {
		field := fmt.Sprintf("artifacts[%d]", i+1)
		if a.OS == "" || a.Arch == "" {
			return nil, &ValidationError{Field: field, Message: "os and arch are required"}
		}
		key := platform.Key{
			Family: platform.NormalizeFamily(a.OS),
			Arch:   platform.NormalizeArch(a.Arch),
		}
		if _, dup := f.Artifacts[key]; dup {
			return nil, &ValidationError{Field: field, Message: "duplicate artifact for " + key.String()}
		}
		f.Artifacts[key] = Artifact{
			URL:    strings.TrimSpace(a.URL),
			SHA256: strings.ToLower(a.SHA256),
		}
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// MarshalYAML renders f in the format ParseYAML reads, artifacts in Keys() order.
func MarshalYAML(f *Formula) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("formula is nil")
	}

	doc := yamlFormula{Formula: *f}
	for _, key := range f.Artifacts.Keys() {
		a := f.Artifacts[key]
		doc.Artifacts = append(doc.Artifacts, yamlArtifact{
			OS:     string(key.Family),
			Arch:   string(key.Arch),
			URL:    a.URL,
			SHA256: a.SHA256,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode formula: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode formula: %w", err)
	}
	return buf.Bytes(), nil
}
