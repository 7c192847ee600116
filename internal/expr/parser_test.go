package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/narrate/internal/ir"
)

func TestLexer(t *testing.T) {
	l := newLexer(`names.slice("Bob")[0].value >= -1.5 && !x || y != 'a\'b'`)

	var types []tokenType
	var literals []string
	for {
		tok := l.next()
		if tok.typ == tokEOF {
			break
		}
		types = append(types, tok.typ)
		literals = append(literals, tok.literal)
	}

	assert.Equal(t, []tokenType{
		tokIdent, tokDot, tokIdent, tokLParen, tokString, tokRParen,
		tokLBracket, tokNumber, tokRBracket, tokDot, tokIdent,
		tokGe, tokNumber, tokAndAnd, tokBang, tokIdent, tokOrOr,
		tokIdent, tokNe, tokString,
	}, types)
	assert.Equal(t, "Bob", literals[4])
	assert.Equal(t, "-1.5", literals[12])
	assert.Equal(t, "a'b", literals[19])
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("names.sort[0].key")
	require.NoError(t, err)

	assert.Equal(t, "names.sort[0].key", p.Text)
	require.Len(t, p.Segments, 3)
	assert.Equal(t, Segment{Name: "names"}, p.Segments[0])
	assert.Equal(t, Segment{Name: "sort", Indexes: []int{0}}, p.Segments[1])
	assert.Equal(t, Segment{Name: "key"}, p.Segments[2])
}

func TestParsePath_CallArgs(t *testing.T) {
	p, err := ParsePath(`names.slice_from(colours, "red").count()`)
	require.NoError(t, err)

	require.Len(t, p.Segments, 3)
	sf := p.Segments[1]
	assert.True(t, sf.Call)
	require.Len(t, sf.Args, 2)
	arg, ok := sf.Args[0].(*Path)
	require.True(t, ok)
	assert.Equal(t, "colours", arg.Text)
	assert.Equal(t, Literal{Value: ir.String("red")}, sf.Args[1])

	assert.True(t, p.Segments[2].Call)
	assert.Empty(t, p.Segments[2].Args)
}

func TestParsePath_HeadIndex(t *testing.T) {
	p, err := ParsePath("counts[-1]")
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, p.Segments[0].Indexes)
}

func TestParsePath_Errors(t *testing.T) {
	tests := []string{
		"",
		"a..b",
		"a.",
		"1.a",
		"a[x]",
		"a.b(",
		"a > 1",
		"a.b[0",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := ParsePath(text)
			var synErr *SyntaxError
			require.True(t, errors.As(err, &synErr), "got %v", err)
			assert.Equal(t, text, synErr.Text)
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	n, err := Parse("a > 1 || b < 2 && !c")
	require.NoError(t, err)

	or, ok := n.(*Or)
	require.True(t, ok, "or binds loosest")
	_, ok = or.Left.(*Compare)
	assert.True(t, ok)

	and, ok := or.Right.(*And)
	require.True(t, ok)
	_, ok = and.Right.(*Not)
	assert.True(t, ok)
}

func TestParse_Keywords(t *testing.T) {
	n, err := Parse("not (a == nil) and b or false")
	require.NoError(t, err)
	_, ok := n.(*Or)
	assert.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"a >",
		"a = 1",
		"a > 1 > 2",
		"(a > 1",
		"a & b",
		"system('rm -rf /')",
		"a.b(c > 1)",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			var synErr *SyntaxError
			require.True(t, errors.As(err, &synErr), "got %v", err)
		})
	}
}

func TestPaths(t *testing.T) {
	n, err := Parse(`a.mean > 4 && (b.slice("x").value > c || !d)`)
	require.NoError(t, err)

	var texts []string
	for _, p := range Paths(n) {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{"a.mean", `b.slice("x").value`, "c", "d"}, texts)
}

func TestCache(t *testing.T) {
	c := NewCache()

	n1, err := c.Parse("a > 1")
	require.NoError(t, err)
	n2, err := c.Parse("a > 1")
	require.NoError(t, err)
	assert.Same(t, n1.(*Compare), n2.(*Compare))

	_, err = c.Parse("a >")
	require.Error(t, err)
	_, err = c.Parse("a >")
	require.Error(t, err)

	_, err = c.ParsePath("a.b")
	require.NoError(t, err)

	hits, misses := c.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 3, misses)
	assert.Equal(t, 3, c.Len())
}
