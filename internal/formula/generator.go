package formula

import (
	"bytes"
	"fmt"
	"strings"
)

// Generator renders formulas as Lua source.
type Generator struct {
	indent string
}

// NewGenerator creates a new Lua formula generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  "}
}

// Generate renders f as a Lua formula that ParseString accepts.
// Artifacts are written in Keys() order so output is stable.
func (g *Generator) Generate(f *Formula) (string, error) {
	if f == nil {
		return "", fmt.Errorf("formula is nil")
	}

	var buf bytes.Buffer

	buf.WriteString("-- ")
	buf.WriteString(f.Name)
	buf.WriteString(" formula\n\n")
	buf.WriteString(luaGlobalFormula)
	buf.WriteString(" = {\n")

	g.writeField(&buf, 1, luaFieldName, f.Name)
	g.writeField(&buf, 1, luaFieldDesc, f.Desc)
	g.writeField(&buf, 1, luaFieldHomepage, f.Homepage)
	g.writeField(&buf, 1, luaFieldLicense, f.License)
	g.writeField(&buf, 1, luaFieldVersion, f.Version)
	g.writeField(&buf, 1, luaFieldBinary, f.Binary)
	g.writeField(&buf, 1, luaFieldSignatureSuffix, f.SignatureSuffix)

	if len(f.Artifacts) > 0 {
		buf.WriteString(g.indent)
		buf.WriteString(luaFieldArtifacts + " = {\n")
		for _, key := range f.Artifacts.Keys() {
			a := f.Artifacts[key]
			buf.WriteString(strings.Repeat(g.indent, 2))
			fmt.Fprintf(&buf, "{ %s = %s, %s = %s, %s = %s",
				luaFieldOS, quoteLuaString(string(key.Family)),
				luaFieldArch, quoteLuaString(string(key.Arch)),
				luaFieldURL, quoteLuaString(a.URL))
			if a.SHA256 != "" {
				fmt.Fprintf(&buf, ", %s = %s", luaFieldSHA256, quoteLuaString(a.SHA256))
			}
			buf.WriteString(" },\n")
		}
		buf.WriteString(g.indent)
		buf.WriteString("},\n")
	}

	if len(f.Test.Args) > 0 || f.Test.Expect != "" {
		buf.WriteString(g.indent)
		buf.WriteString(luaFieldTest + " = {\n")
		if len(f.Test.Args) > 0 {
			quoted := make([]string, len(f.Test.Args))
			for i, arg := range f.Test.Args {
				quoted[i] = quoteLuaString(arg)
			}
			buf.WriteString(strings.Repeat(g.indent, 2))
			fmt.Fprintf(&buf, "%s = { %s },\n", luaFieldArgs, strings.Join(quoted, ", "))
		}
		g.writeField(&buf, 2, luaFieldExpect, f.Test.Expect)
		buf.WriteString(g.indent)
		buf.WriteString("},\n")
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}

// writeField writes `name = "value",` at the given depth, skipping empty values.
func (g *Generator) writeField(buf *bytes.Buffer, depth int, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(quoteLuaString(value))
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for safe inclusion in Lua code.
func quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
