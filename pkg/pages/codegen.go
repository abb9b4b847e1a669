package pages

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ModuleHeader opens every generated pages module.
const ModuleHeader = `/* eslint-disable */
/* prettier-ignore */
// @ts-nocheck
// Code generated by pagegen. DO NOT EDIT.
`

// Generator renders the name tree as a TypeScript module whose default export is
// a readonly (as const) object.
type Generator struct {
	names *Branch
}

// NewGenerator creates a generator for the given name tree.
func NewGenerator(names *Branch) *Generator {
	if names == nil {
		names = NewBranch()
	}
	return &Generator{names: names}
}

// Generate produces the module source. Output is deterministic: keys appear in
// insertion order, indented by two spaces.
func (g *Generator) Generate() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(ModuleHeader)
	buf.WriteString("export default ")
	if err := writeNode(&buf, g.names, 0); err != nil {
		return nil, err
	}
	buf.WriteString(" as const;\n")
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, node NameNode, depth int) error {
	switch n := node.(type) {
	case *Leaf:
		return writeString(buf, n.Route)
	case *Branch:
		if n.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		indent := strings.Repeat("  ", depth+1)
		for i, key := range n.keys {
			buf.WriteString(indent)
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := writeNode(buf, n.children[key], depth+1); err != nil {
				return err
			}
			if i < len(n.keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteByte('}')
	}
	return nil
}

// writeString writes s as a JSON string literal without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
