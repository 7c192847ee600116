package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/narrate/internal/interp"
	"github.com/roach88/narrate/internal/ir"
)

// walker performs one depth-first, pre-order walk and collects findings in
// the order leaves are rendered.
type walker struct {
	findings []string
}

// branchOutput is the space-joined rendered and raw text of a branch. A nil
// field means nothing contributed.
type branchOutput struct {
	text *string
	raw  *string
}

// branch evaluates br in ctx. Assignments are bound first, in authored
// order, so every text and nested condition at this level sees all of them.
// Then text leaves and nested branches are visited in authored order; a
// nested branch whose condition is false is skipped entirely.
func (w *walker) branch(ctx *Context, br *ir.Branch, logger *slog.Logger) (branchOutput, error) {
	for _, ent := range br.Entries {
		if ent.Key == ir.TextKey {
			continue
		}
		switch v := ent.Value.(type) {
		case ir.Expr:
			val, err := ctx.eval.Eval(ctx, string(v))
			if err != nil {
				return branchOutput{}, err
			}
			ctx.bind(ent.Key, kindOf(val), val)
		case ir.Literal:
			ctx.bind(ent.Key, KindScalar, v.Value)
		}
	}

	var texts, raws []string
	for _, ent := range br.Entries {
		switch v := ent.Value.(type) {
		case ir.Leaf:
			if ent.Key != ir.TextKey {
				continue
			}
			raw, ok := v.Text(ctx.locale)
			if !ok {
				continue
			}
			s, err := interp.Render(ctx, raw)
			if err != nil {
				return branchOutput{}, err
			}
			w.findings = append(w.findings, s)
			texts = append(texts, s)
			raws = append(raws, raw)

		case *ir.Branch:
			ok, err := ctx.eval.Condition(ctx, ent.Key)
			if err != nil {
				return branchOutput{}, err
			}
			if !ok {
				logger.Debug("branch skipped", "condition", ent.Key)
				continue
			}
			out, err := w.branch(ctx.child(), v, logger)
			if err != nil {
				return branchOutput{}, err
			}
			if out.text != nil {
				texts = append(texts, *out.text)
			}
			if out.raw != nil {
				raws = append(raws, *out.raw)
			}
		}
	}

	return branchOutput{text: join(texts), raw: join(raws)}, nil
}

func join(parts []string) *string {
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, " ")
	return &s
}
