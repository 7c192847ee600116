package expr

import (
	"fmt"
	"strconv"

	"github.com/roach88/narrate/internal/ir"
)

// ParsePath parses an accessor chain:
//
//	path    := ident index* ( '.' name ( '(' args? ')' )? index* )*
//	index   := '[' integer ']'
//	args    := arg ( ',' arg )*
//	arg     := literal | path
func ParsePath(text string) (*Path, error) {
	p := newParser(text)
	if p.cur.typ != tokIdent {
		return nil, p.errorf("expected identifier, got %s", p.cur)
	}
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokEOF {
		return nil, p.errorf("unexpected %s after path", p.cur)
	}
	return path, nil
}

// Parse parses a full expression:
//
//	or      := and ( ('||' | 'or') and )*
//	and     := unary ( ('&&' | 'and') unary )*
//	unary   := ('!' | 'not') unary | cmp
//	cmp     := operand ( op operand )?
//	op      := '==' | '!=' | '<' | '<=' | '>' | '>='
//	operand := literal | path | '(' or ')'
func Parse(text string) (Node, error) {
	p := newParser(text)
	if p.cur.typ == tokEOF {
		return nil, p.errorf("empty expression")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokEOF {
		return nil, p.errorf("unexpected %s", p.cur)
	}
	return n, nil
}

type parser struct {
	input   string
	l       *lexer
	cur     token
	peek    token
	prevEnd int
}

func newParser(input string) *parser {
	p := &parser{input: input, l: newLexer(input)}
	p.advance()
	p.advance()
	return p
}

func (p *parser) advance() {
	p.prevEnd = p.cur.end
	p.cur = p.peek
	p.peek = p.l.next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Text: p.input, Pos: p.cur.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(typ tokenType, what string) error {
	if p.cur.typ != typ {
		return p.errorf("expected %s, got %s", what, p.cur)
	}
	p.advance()
	return nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.typ == tokOr || p.cur.typ == tokOrOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.typ == tokAnd || p.cur.typ == tokAndAnd {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur.typ == tokBang || p.cur.typ == tokNot {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parseCompare()
}

var compareOps = map[tokenType]CompareOp{
	tokEq: OpEq,
	tokNe: OpNe,
	tokLt: OpLt,
	tokLe: OpLe,
	tokGt: OpGt,
	tokGe: OpGe,
}

func (p *parser) parseCompare() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, ok := compareOps[p.cur.typ]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseOperand() (Node, error) {
	switch p.cur.typ {
	case tokLParen:
		p.advance()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
		return p.parsePath()
	default:
		if lit, ok, err := p.parseLiteral(); ok || err != nil {
			return lit, err
		}
		return nil, p.errorf("unexpected %s", p.cur)
	}
}

// parseLiteral consumes a literal token. ok is false when the current token
// is not a literal.
func (p *parser) parseLiteral() (Node, bool, error) {
	tok := p.cur
	var v ir.Value
	switch tok.typ {
	case tokString:
		v = ir.String(tok.literal)
	case tokNumber:
		f, err := strconv.ParseFloat(tok.literal, 64)
		if err != nil {
			return nil, false, p.errorf("invalid number %s", tok)
		}
		v = ir.Number(f)
	case tokTrue:
		v = ir.Bool(true)
	case tokFalse:
		v = ir.Bool(false)
	case tokNil:
		v = ir.Missing{}
	default:
		return nil, false, nil
	}
	p.advance()
	return Literal{Value: v}, true, nil
}

func (p *parser) parsePath() (*Path, error) {
	start := p.cur.pos
	head := Segment{Name: p.cur.literal}
	p.advance()
	if err := p.parseIndexes(&head); err != nil {
		return nil, err
	}
	path := &Path{Segments: []Segment{head}}

	for p.cur.typ == tokDot {
		p.advance()
		if !isName(p.cur.typ) {
			return nil, p.errorf("expected operation name, got %s", p.cur)
		}
		seg := Segment{Name: p.cur.literal}
		p.advance()
		if p.cur.typ == tokLParen {
			seg.Call = true
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			seg.Args = args
		}
		if err := p.parseIndexes(&seg); err != nil {
			return nil, err
		}
		path.Segments = append(path.Segments, seg)
	}

	path.Text = p.input[start:p.prevEnd]
	return path, nil
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.cur.typ == tokRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.typ != tokComma {
			break
		}
		p.advance()
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArg() (Node, error) {
	if p.cur.typ == tokIdent {
		return p.parsePath()
	}
	lit, ok, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf("expected literal or path argument, got %s", p.cur)
	}
	return lit, nil
}

func (p *parser) parseIndexes(seg *Segment) error {
	for p.cur.typ == tokLBracket {
		p.advance()
		if p.cur.typ != tokNumber {
			return p.errorf("expected integer index, got %s", p.cur)
		}
		i, err := strconv.Atoi(p.cur.literal)
		if err != nil {
			return p.errorf("expected integer index, got %s", p.cur)
		}
		p.advance()
		if err := p.expect(tokRBracket, "']'"); err != nil {
			return err
		}
		seg.Indexes = append(seg.Indexes, i)
	}
	return nil
}

// isName reports whether a token can name an operation or namespace member.
// Keywords are allowed after a dot, so a column called "and" stays reachable.
func isName(typ tokenType) bool {
	switch typ {
	case tokIdent, tokTrue, tokFalse, tokNil, tokAnd, tokOr, tokNot:
		return true
	}
	return false
}
