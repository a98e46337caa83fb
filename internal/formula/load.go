package formula

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a formula from disk. The format is chosen by extension:
// .lua is evaluated with p, .yaml/.yml is decoded statically.
func LoadFile(ctx context.Context, p *Parser, path string) (*Formula, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lua":
		if p == nil {
			p = NewParser(nil)
		}
		return p.ParseString(ctx, string(data))
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported formula format %q (want .lua, .yaml or .yml)", ext)
	}
}

// readLimited reads at most MaxFormulaSize bytes and fails if the file is larger.
func readLimited(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open formula: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxFormulaSize+1))
	if err != nil {
		return nil, fmt.Errorf("read formula: %w", err)
	}
	if len(data) > MaxFormulaSize {
		return nil, &ParseError{
			Message: "formula too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxFormulaSize),
		}
	}
	return data, nil
}
