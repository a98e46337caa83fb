package formula

import "time"

// Lua schema globals and field names
const (
	luaGlobalFormula        = "formula"
	luaFieldName            = "name"
	luaFieldDesc            = "desc"
	luaFieldHomepage        = "homepage"
	luaFieldLicense         = "license"
	luaFieldVersion         = "version"
	luaFieldBinary          = "binary"
	luaFieldSignatureSuffix = "signature_suffix"
	luaFieldArtifacts       = "artifacts"
	luaFieldOS              = "os"
	luaFieldArch            = "arch"
	luaFieldURL             = "url"
	luaFieldSHA256          = "sha256"
	luaFieldTest            = "test"
	luaFieldArgs            = "args"
	luaFieldExpect          = "expect"
)

const (
	// MaxFormulaSize caps formula files read from disk.
	MaxFormulaSize = 1 << 20

	// MaxArtifacts caps the number of artifact table entries.
	MaxArtifacts = 64

	// DefaultParseTimeout applies when the caller's context has no deadline.
	DefaultParseTimeout = 5 * time.Second

	// DefaultTestArg is the subcommand run by the smoke test.
	DefaultTestArg = "version"
)
