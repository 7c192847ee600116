package expr

import "fmt"

// tokenType identifies a lexical token of the expression language.
type tokenType int

const (
	tokIllegal tokenType = iota
	tokEOF

	tokIdent
	tokString
	tokNumber

	// Keywords
	tokTrue
	tokFalse
	tokNil
	tokAnd
	tokOr
	tokNot

	// Punctuation
	tokDot
	tokComma
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket

	// Operators
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokAndAnd
	tokOrOr
	tokBang
)

var keywords = map[string]tokenType{
	"true":  tokTrue,
	"false": tokFalse,
	"nil":   tokNil,
	"null":  tokNil,
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
}

// token is one lexeme. pos and end are byte offsets into the input; for
// strings literal holds the unquoted text, so end-pos may differ from its length.
type token struct {
	typ     tokenType
	literal string
	pos     int
	end     int
}

func (t token) String() string {
	if t.typ == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.literal)
}

// lexer splits expression text into tokens. It works on bytes; identifier
// bytes above 0x7f are accepted so UTF-8 column names lex as one identifier.
type lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *lexer) next() token {
	tok := l.scan()
	tok.end = l.position
	return tok
}

func (l *lexer) scan() token {
	l.skipWhitespace()

	start := l.position
	tok := token{pos: start}

	switch l.ch {
	case 0:
		tok.typ = tokEOF
		return tok
	case '.':
		tok.typ = tokDot
	case ',':
		tok.typ = tokComma
	case '(':
		tok.typ = tokLParen
	case ')':
		tok.typ = tokRParen
	case '[':
		tok.typ = tokLBracket
	case ']':
		tok.typ = tokRBracket
	case '=':
		tok.typ = tokIllegal
		if l.peekChar() == '=' {
			l.readChar()
			tok.typ = tokEq
		}
	case '!':
		tok.typ = tokBang
		if l.peekChar() == '=' {
			l.readChar()
			tok.typ = tokNe
		}
	case '<':
		tok.typ = tokLt
		if l.peekChar() == '=' {
			l.readChar()
			tok.typ = tokLe
		}
	case '>':
		tok.typ = tokGt
		if l.peekChar() == '=' {
			l.readChar()
			tok.typ = tokGe
		}
	case '&':
		tok.typ = tokIllegal
		if l.peekChar() == '&' {
			l.readChar()
			tok.typ = tokAndAnd
		}
	case '|':
		tok.typ = tokIllegal
		if l.peekChar() == '|' {
			l.readChar()
			tok.typ = tokOrOr
		}
	case '"', '\'':
		s, ok := l.readString(l.ch)
		if !ok {
			return token{typ: tokIllegal, literal: l.input[start:l.position], pos: start}
		}
		return token{typ: tokString, literal: s, pos: start}
	case '-':
		if isDigit(l.peekChar()) {
			l.readChar()
			l.readNumber()
			return token{typ: tokNumber, literal: l.input[start:l.position], pos: start}
		}
		tok.typ = tokIllegal
	default:
		switch {
		case isLetter(l.ch):
			lit := l.readIdentifier()
			typ, ok := keywords[lit]
			if !ok {
				typ = tokIdent
			}
			return token{typ: typ, literal: lit, pos: start}
		case isDigit(l.ch):
			l.readNumber()
			return token{typ: tokNumber, literal: l.input[start:l.position], pos: start}
		default:
			tok.typ = tokIllegal
		}
	}

	l.readChar()
	tok.literal = l.input[start:l.position]
	return tok
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber consumes digits with an optional fraction. A dot not followed by
// a digit is left alone so "x[0].key" style chains still lex.
func (l *lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

// readString consumes a quoted string. Backslash escapes the next byte.
func (l *lexer) readString(quote byte) (string, bool) {
	var buf []byte
	for {
		l.readChar()
		switch l.ch {
		case 0:
			return "", false
		case quote:
			l.readChar()
			return string(buf), true
		case '\\':
			l.readChar()
			if l.ch == 0 {
				return "", false
			}
		}
		buf = append(buf, l.ch)
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
