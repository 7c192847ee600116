package loader

import (
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/locale"
)

// ParseCUE compiles a single CUE file into a template. The root struct is
// the template; field order is kept, so conditions containing spaces or
// operators are written as quoted labels:
//
//	best: "names.sort.first"
//	text: GB_en: "{{best.key}} has the most."
//	"best.value > 10": {
//		text: GB_en: "By a lot."
//	}
func ParseCUE(filename string, src []byte) (*ir.Branch, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	return cueBranch(v)
}

// LoadCUE loads the CUE package in dir and returns its root as a template.
func LoadCUE(dir string) (*ir.Branch, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, errorf(ErrCodeReadFailed, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, errorf(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errorf(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(ErrCodeLoadFailed, inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	return cueBranch(v)
}

// FindCUEFiles returns the .cue files directly in dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func cueBranch(v cue.Value) (*ir.Branch, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, errorf(ErrCodeNotMapping, "expected a struct, got %s", v.IncompleteKind()).atPos(v.Pos())
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}

	br := ir.NewBranch()
	for iter.Next() {
		key := cueLabel(iter.Selector())
		val, err := cueEntry(key, iter.Value())
		if err != nil {
			return nil, err
		}
		br.Entries = append(br.Entries, ir.E(key, val))
	}
	return br, nil
}

func cueLabel(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func cueEntry(key string, v cue.Value) (ir.EntryValue, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	if key == ir.TextKey {
		return cueLeaf(v)
	}

	switch v.Kind() {
	case cue.StructKind:
		return cueBranch(v)
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, cueError(ErrCodeInvalidValue, err)
		}
		return ir.Expr(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, cueError(ErrCodeInvalidValue, err)
		}
		return ir.Literal{Value: ir.Bool(b)}, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, cueError(ErrCodeInvalidValue, err)
		}
		return ir.Literal{Value: ir.Number(f)}, nil
	case cue.NullKind:
		return ir.Literal{Value: ir.Missing{}}, nil
	case cue.BottomKind:
		return nil, errorf(ErrCodeInvalidValue, "%s: value is not concrete", key).atPos(v.Pos())
	default:
		return nil, errorf(ErrCodeInvalidValue, "%s: unsupported %s value", key, v.Kind()).atPos(v.Pos())
	}
}

func cueLeaf(v cue.Value) (ir.Leaf, error) {
	if s, err := v.String(); err == nil {
		return ir.Leaf{locale.Default: s}, nil
	}
	if v.Kind() != cue.StructKind {
		return nil, errorf(ErrCodeInvalidText, "text must be a locale map, got %s", v.Kind()).atPos(v.Pos())
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, cueError(ErrCodeInvalidText, err)
	}
	leaf := ir.Leaf{}
	for iter.Next() {
		code := cueLabel(iter.Selector())
		s, err := iter.Value().String()
		if err != nil {
			return nil, errorf(ErrCodeInvalidText, "text for %q must be a string", code).atPos(iter.Value().Pos())
		}
		leaf[code] = s
	}
	return leaf, nil
}
