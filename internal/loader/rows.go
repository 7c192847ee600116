package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/narrate/internal/ir"
)

// LoadRows reads a rows file: .json, .yml and .yaml hold a list of
// mappings, .csv has a header row.
func LoadRows(path string) (ir.Rows, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errorf(ErrCodeNotFound, "rows not found: %s", path)
	}
	if err != nil {
		return nil, errorf(ErrCodeReadFailed, "reading rows: %v", err)
	}

	var rows ir.Rows
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		rows, err = ParseRowsJSON(data)
	case ".yml", ".yaml":
		rows, err = ParseRowsYAML(data)
	case ".csv":
		rows, err = ParseRowsCSV(data)
	default:
		return nil, errorf(ErrCodeFormat, "unsupported rows format %q", ext)
	}
	if err != nil {
		return nil, withFile(err, path)
	}
	return rows, nil
}

// ParseRowsJSON parses a JSON array of objects. Column order follows each
// object's key order.
func ParseRowsJSON(data []byte) (ir.Rows, error) {
	return ParseRowsYAML(data)
}

// ParseRowsYAML parses a YAML list of mappings. Column order follows each
// mapping's key order; null becomes Missing and a !!timestamp becomes epoch
// seconds.
func ParseRowsYAML(data []byte) (ir.Rows, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errorf(ErrCodeSyntax, "%v", err)
	}
	return RowsFromNode(&doc)
}

// RowsFromNode converts a YAML document or sequence of mappings into rows.
func RowsFromNode(n *yaml.Node) (ir.Rows, error) {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, nil
		}
		n = n.Content[0]
	}
	if n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null") {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorf(ErrCodeInvalidRows, "rows must be a list of mappings, got %s", yamlKind(n)).at("", n.Line, n.Column)
	}

	rows := make(ir.Rows, 0, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, errorf(ErrCodeInvalidRows, "row %d is a %s, not a mapping", i, yamlKind(item)).at("", item.Line, item.Column)
		}
		rec := make(ir.Record, 0, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			k, v := item.Content[j], item.Content[j+1]
			if v.Kind != yaml.ScalarNode {
				return nil, errorf(ErrCodeInvalidCell, "row %d column %q: cells must be scalars", i, k.Value).at("", v.Line, v.Column)
			}
			val, err := scalarValue(v)
			if err != nil {
				return nil, errorf(ErrCodeInvalidCell, "row %d column %q: %v", i, k.Value, err).at("", v.Line, v.Column)
			}
			rec = append(rec, ir.Field{Name: k.Value, Value: val})
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// ParseRowsCSV parses CSV with a header row. Cells are coerced: empty is
// Missing, true/false are Bool, anything strconv.ParseFloat accepts is a
// Number and the rest are String.
func ParseRowsCSV(data []byte) (ir.Rows, error) {
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errorf(ErrCodeSyntax, "%v", err)
	}

	var rows ir.Rows
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errorf(ErrCodeSyntax, "%v", err)
		}
		row := make(ir.Record, len(header))
		for i, name := range header {
			row[i] = ir.Field{Name: name, Value: CoerceCell(rec[i])}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CoerceCell turns one untyped text cell into a value.
func CoerceCell(s string) ir.Value {
	t := strings.TrimSpace(s)
	switch {
	case t == "":
		return ir.Missing{}
	case strings.EqualFold(t, "true"):
		return ir.Bool(true)
	case strings.EqualFold(t, "false"):
		return ir.Bool(false)
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return ir.MustFromGo(f)
	}
	return ir.String(s)
}

// scalarValue decodes a YAML scalar. Timestamps become epoch seconds.
func scalarValue(v *yaml.Node) (ir.Value, error) {
	if v.ShortTag() == "!!timestamp" {
		var ts time.Time
		if err := v.Decode(&ts); err != nil {
			return nil, err
		}
		return ir.FromGo(ts)
	}
	var raw any
	if err := v.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.FromGo(raw)
}
