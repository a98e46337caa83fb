package formula

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudmanic/skyclerk-install/internal/logging"
	"github.com/cloudmanic/skyclerk-install/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates Lua formulas.
type Parser struct {
	detector platform.Detector
	logger   logging.Logger
}

// NewParser creates a Lua formula parser. When detector is non-nil the
// host's platform table is injected before the formula runs.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: logging.Nop()}
}

// WithLogger sets the parser's logger.
func (p *Parser) WithLogger(l logging.Logger) *Parser {
	p.logger = logging.OrNop(l)
	return p
}

// ParseString parses a Lua formula from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Formula, error) {
	if len(luaCode) > MaxFormulaSize {
		return nil, &ParseError{
			Message: "formula too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxFormulaSize),
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
		p.logger.Debug("platform table injected", "platform", info.Key().String())
	}

	if err := L.DoString(luaCode); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("formula evaluation aborted: %w", ctx.Err())
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
			Err:     err,
		}
	}

	f, err := extractFormula(L)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("formula parsed", "name", f.Name, "artifacts", len(f.Artifacts))
	return f, nil
}

// extractFormula reads the global "formula" table.
func extractFormula(L *lua.LState) (*Formula, error) {
	val := L.GetGlobal(luaGlobalFormula)
	table, ok := val.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'formula' table",
			Detail:  fmt.Sprintf("expected table, got %s", val.Type()),
		}
	}

	f := &Formula{
		Name:            getString(table, luaFieldName),
		Desc:            getString(table, luaFieldDesc),
		Homepage:        getString(table, luaFieldHomepage),
		License:         getString(table, luaFieldLicense),
		Version:         getString(table, luaFieldVersion),
		Binary:          getString(table, luaFieldBinary),
		SignatureSuffix: getString(table, luaFieldSignatureSuffix),
	}

	if artifactsVal := table.RawGetString(luaFieldArtifacts); artifactsVal.Type() == lua.LTTable {
		artifacts, err := extractArtifacts(artifactsVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		f.Artifacts = artifacts
	}

	if testVal := table.RawGetString(luaFieldTest); testVal.Type() == lua.LTTable {
		testTable := testVal.(*lua.LTable)
		f.Test.Expect = getString(testTable, luaFieldExpect)
		if argsVal := testTable.RawGetString(luaFieldArgs); argsVal.Type() == lua.LTTable {
			argsVal.(*lua.LTable).ForEach(func(_, v lua.LValue) {
				if v.Type() == lua.LTString {
					f.Test.Args = append(f.Test.Args, v.String())
				}
			})
		}
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// extractArtifacts builds the artifact table. Entries whose url is nil
// (from platform conditionals) are skipped; duplicate keys are rejected.
func extractArtifacts(table *lua.LTable) (ArtifactTable, error) {
	artifacts := make(ArtifactTable)
	var firstErr error

	index := 0
	table.ForEach(func(_, value lua.LValue) {
		index++
		if firstErr != nil || value.Type() == lua.LTNil {
			return
		}

		entry, ok := value.(*lua.LTable)
		if !ok {
			firstErr = &ValidationError{
				Field:   fmt.Sprintf("artifacts[%d]", index),
				Message: fmt.Sprintf("expected table, got %s", value.Type()),
			}
			return
		}

		urlVal := entry.RawGetString(luaFieldURL)
		if urlVal.Type() == lua.LTNil {
			return
		}

		family := getString(entry, luaFieldOS)
		arch := getString(entry, luaFieldArch)
		if family == "" || arch == "" {
			firstErr = &ValidationError{
				Field:   fmt.Sprintf("artifacts[%d]", index),
				Message: "os and arch are required",
			}
			return
		}

		key := platform.Key{
			Family: platform.NormalizeFamily(family),
			Arch:   platform.NormalizeArch(arch),
		}
		if _, dup := artifacts[key]; dup {
			firstErr = &ValidationError{
				Field:   fmt.Sprintf("artifacts[%d]", index),
				Message: "duplicate artifact for " + key.String(),
			}
			return
		}

		artifacts[key] = Artifact{
			URL:    strings.TrimSpace(lua.LVAsString(urlVal)),
			SHA256: strings.ToLower(getString(entry, luaFieldSHA256)),
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return artifacts, nil
}

// getString returns a string field, or "" when absent or not a string.
func getString(table *lua.LTable, field string) string {
	if v := table.RawGetString(field); v.Type() == lua.LTString {
		return v.String()
	}
	return ""
}

// FormatError renders err for the terminal. A ParseError anywhere in the
// chain loses its Lua stack trace unless verbose is set.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
