package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

// LoadTemplate reads a template file, choosing the format by extension:
// .yml, .yaml and .json are YAML documents, .cue is CUE, and .csv is a
// two-column condition/text table whose text is for loc.
//
// A directory is loaded as a CUE package.
func LoadTemplate(path, loc string) (*ir.Branch, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errorf(ErrCodeNotFound, "template not found: %s", path)
	}
	if err != nil {
		return nil, errorf(ErrCodeReadFailed, "accessing template: %v", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorf(ErrCodeReadFailed, "reading template: %v", err)
	}

	var tmpl *ir.Branch
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml", ".json":
		tmpl, err = ParseYAML(data)
	case ".cue":
		tmpl, err = ParseCUE(path, data)
	case ".csv":
		tmpl, err = ParseTableCSV(data, loc)
	default:
		return nil, errorf(ErrCodeFormat, "unsupported template format %q", ext)
	}
	if err != nil {
		return nil, withFile(err, path)
	}
	return tmpl, nil
}

// ParseYAML parses a YAML (or JSON) template. Mapping key order is kept.
//
//   - a mapping becomes a Branch gated by its key
//   - the mapping under "text" becomes a Leaf of locale to text; a plain
//     string under "text" is the text for locale.Default
//   - a string becomes an Expr
//   - a bool, number or null becomes a Literal
//
// Lists are rejected. An empty document is an empty template.
func ParseYAML(data []byte) (*ir.Branch, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errorf(ErrCodeSyntax, "%v", err)
	}
	return TemplateFromNode(&doc)
}

// TemplateFromNode converts an already parsed YAML document or mapping, for
// templates embedded in a larger file.
func TemplateFromNode(n *yaml.Node) (*ir.Branch, error) {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return ir.NewBranch(), nil
		}
		n = n.Content[0]
	}
	if n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null") {
		return ir.NewBranch(), nil
	}
	return yamlBranch(n)
}

func yamlBranch(n *yaml.Node) (*ir.Branch, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorf(ErrCodeNotMapping, "expected a mapping, got %s", yamlKind(n)).at("", n.Line, n.Column)
	}

	br := ir.NewBranch()
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, errorf(ErrCodeInvalidValue, "keys must be scalars").at("", k.Line, k.Column)
		}
		key := k.Value
		if seen[key] {
			return nil, errorf(ErrCodeDuplicateKey, "duplicate key %q", key).at("", k.Line, k.Column)
		}
		seen[key] = true

		val, err := yamlEntry(key, v)
		if err != nil {
			return nil, err
		}
		br.Entries = append(br.Entries, ir.E(key, val))
	}
	return br, nil
}

func yamlEntry(key string, v *yaml.Node) (ir.EntryValue, error) {
	if v.Kind == yaml.AliasNode {
		v = v.Alias
	}
	if key == ir.TextKey {
		return yamlLeaf(v)
	}

	switch v.Kind {
	case yaml.MappingNode:
		return yamlBranch(v)
	case yaml.ScalarNode:
		if v.ShortTag() == "!!str" {
			return ir.Expr(v.Value), nil
		}
		val, err := scalarValue(v)
		if err != nil {
			return nil, errorf(ErrCodeInvalidValue, "%s: %v", key, err).at("", v.Line, v.Column)
		}
		return ir.Literal{Value: val}, nil
	default:
		return nil, errorf(ErrCodeInvalidValue, "%s: unsupported %s value", key, yamlKind(v)).at("", v.Line, v.Column)
	}
}

func yamlLeaf(v *yaml.Node) (ir.Leaf, error) {
	switch v.Kind {
	case yaml.ScalarNode:
		return ir.Leaf{locale.Default: v.Value}, nil
	case yaml.MappingNode:
		leaf := make(ir.Leaf, len(v.Content)/2)
		for i := 0; i+1 < len(v.Content); i += 2 {
			k, t := v.Content[i], v.Content[i+1]
			if t.Kind != yaml.ScalarNode {
				return nil, errorf(ErrCodeInvalidText, "text for %q must be a string", k.Value).at("", t.Line, t.Column)
			}
			leaf[k.Value] = t.Value
		}
		return leaf, nil
	default:
		return nil, errorf(ErrCodeInvalidText, "text must be a locale map, got %s", yamlKind(v)).at("", v.Line, v.Column)
	}
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// FromTable builds a template from two-column condition/text rows. Each row
// becomes a branch gated by its condition whose text is for loc. An empty
// condition always holds.
func FromTable(rows [][2]string, loc string) *ir.Branch {
	if loc == "" {
		loc = locale.Default
	}
	br := ir.NewBranch()
	for _, r := range rows {
		cond := strings.TrimSpace(r[0])
		if cond == "" {
			cond = "true"
		}
		br.Entries = append(br.Entries, ir.E(cond, ir.NewBranch(ir.E(ir.TextKey, ir.Leaf{loc: r[1]}))))
	}
	return br
}

// ParseTableCSV reads a condition/text table. A first row of
// "condition,text" is treated as a header and skipped.
func ParseTableCSV(data []byte, loc string) (*ir.Branch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var rows [][2]string
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errorf(ErrCodeSyntax, "%v", err)
		}
		if len(rec) != 2 {
			return nil, errorf(ErrCodeInvalidTable, "row %d has %d cells, want 2", line, len(rec)).at("", line, 1)
		}
		if line == 1 && strings.EqualFold(rec[0], "condition") && strings.EqualFold(rec[1], "text") {
			continue
		}
		rows = append(rows, [2]string{rec[0], rec[1]})
	}
	return FromTable(rows, loc), nil
}

// MarshalYAML renders a template back to YAML with its key order intact.
func MarshalYAML(tmpl *ir.Branch) ([]byte, error) {
	node, err := branchNode(tmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func branchNode(br *ir.Branch) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if br == nil {
		return n, nil
	}
	for _, ent := range br.Entries {
		k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ent.Key}
		var v *yaml.Node
		switch x := ent.Value.(type) {
		case *ir.Branch:
			var err error
			if v, err = branchNode(x); err != nil {
				return nil, err
			}
		case ir.Leaf:
			v = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			codes := make([]string, 0, len(x))
			for code := range x {
				codes = append(codes, code)
			}
			slices.Sort(codes)
			for _, code := range codes {
				v.Content = append(v.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: code},
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x[code]})
			}
		case ir.Expr:
			v = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(x)}
		case ir.Literal:
			v = &yaml.Node{}
			if err := v.Encode(literalGo(x.Value)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported entry value %T", ent.Value)
		}
		n.Content = append(n.Content, k, v)
	}
	return n, nil
}

func literalGo(v ir.Value) any {
	switch x := v.(type) {
	case ir.String:
		return string(x)
	case ir.Number:
		return float64(x)
	case ir.Bool:
		return bool(x)
	default:
		return nil
	}
}
