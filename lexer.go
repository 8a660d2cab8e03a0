package mon

import (
	"strings"
	"unicode/utf8"

	"github.com/mycelmon/mon/pkg/ast"
)

// Lexer is a single-pass, byte-offset scanner over one document's source
// text. It never aborts: lexical failures are recorded as a Diagnostic
// and surfaced as a TokError token so the parser can resynchronize
// instead of stopping outright.
type Lexer struct {
	src      []byte
	sourceID string
	pos      int
	buffered *Token
	diags    Diagnostics
}

// NewLexer creates a Lexer over src. sourceID is stamped into every span
// the lexer produces so downstream diagnostics can be traced back to the
// originating file (Analyze passes its originPath for the root document).
func NewLexer(src []byte, sourceID string) *Lexer {
	return &Lexer{src: src, sourceID: sourceID}
}

// Diagnostics returns every lexical diagnostic collected so far.
func (l *Lexer) Diagnostics() Diagnostics {
	return l.diags
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.buffered == nil {
		tok := l.scan()
		l.buffered = &tok
	}
	return *l.buffered
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if l.buffered != nil {
		tok := *l.buffered
		l.buffered = nil
		return tok
	}
	return l.scan()
}

func (l *Lexer) span(start int) ast.Span {
	return ast.Span{Start: start, End: l.pos, Source: l.sourceID}
}

func (l *Lexer) emit(kind Kind, start int, format string, args ...any) {
	l.diags = append(l.diags, newDiagnostic(kind, l.span(start), format, args...))
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.pos++
			continue
		}
		if c == '/' && l.peekByteAt(1) == '/' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scan reads exactly one token, never returning without advancing pos
// (except at end of input), so a pathological byte can never stall the
// pipeline.
func (l *Lexer) scan() Token {
	l.skipWhitespaceAndComments()
	start := l.pos

	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Span: l.span(start)}
	}

	c := l.src[l.pos]

	switch {
	case c == '{':
		l.pos++
		return Token{Kind: TokLBrace, Span: l.span(start)}
	case c == '}':
		l.pos++
		return Token{Kind: TokRBrace, Span: l.span(start)}
	case c == '[':
		l.pos++
		return Token{Kind: TokLBracket, Span: l.span(start)}
	case c == ']':
		l.pos++
		return Token{Kind: TokRBracket, Span: l.span(start)}
	case c == '(':
		l.pos++
		return Token{Kind: TokLParen, Span: l.span(start)}
	case c == ')':
		l.pos++
		return Token{Kind: TokRParen, Span: l.span(start)}
	case c == ',':
		l.pos++
		return Token{Kind: TokComma, Span: l.span(start)}
	case c == '=':
		l.pos++
		return Token{Kind: TokEquals, Span: l.span(start)}
	case c == '$':
		l.pos++
		return Token{Kind: TokDollar, Span: l.span(start)}
	case c == '#':
		l.pos++
		return Token{Kind: TokHash, Span: l.span(start)}
	case c == ':':
		l.pos++
		if l.peekByte() == ':' {
			l.pos++
			return Token{Kind: TokDoubleColon, Span: l.span(start)}
		}
		return Token{Kind: TokColon, Span: l.span(start)}
	case c == '.':
		return l.scanDot(start)
	case c == '&':
		return l.scanSigil(start, TokAnchor, '&')
	case c == '*':
		// '*' is overloaded: "*name" with no intervening whitespace is the
		// Alias sigil; a bare '*' (as in "import * as ns") is a standalone
		// token consumed only by the import-namespace grammar production.
		if isIdentStart(l.peekByteAt(1)) {
			return l.scanSigil(start, TokAlias, '*')
		}
		l.pos++
		return Token{Kind: TokStar, Span: l.span(start)}
	case c == '"':
		return l.scanString(start)
	case c == '-' || isDigit(c):
		return l.scanNumber(start)
	case isIdentStart(c):
		return l.scanIdent(start)
	default:
		r, size := utf8.DecodeRune(l.src[l.pos:])
		if size == 0 {
			size = 1
		}
		l.pos += size
		l.emit(KindUnexpectedChar, start, "unexpected character %q", r)
		return Token{Kind: TokError, Span: l.span(start)}
	}
}

// scanDot implements "..." => Spread, "." => Dot, ".." => error, per
// below.
func (l *Lexer) scanDot(start int) Token {
	l.pos++ // consume first '.'
	if l.peekByte() == '.' && l.peekByteAt(1) == '.' {
		l.pos += 2
		return Token{Kind: TokSpread, Span: l.span(start)}
	}
	if l.peekByte() == '.' {
		l.pos++
		l.emit(KindUnexpectedChar, start, "'..' is not a valid token (did you mean '...'?)")
		return Token{Kind: TokError, Span: l.span(start)}
	}
	return Token{Kind: TokDot, Span: l.span(start)}
}

// scanSigil handles '&name' and '*name': the sigil must be immediately
// followed, with no whitespace, by an identifier.
func (l *Lexer) scanSigil(start int, kind TokenKind, sigil byte) Token {
	l.pos++ // consume sigil
	if !isIdentStart(l.peekByte()) {
		l.emit(KindUnexpectedChar, start, "%q must be immediately followed by an identifier", sigil)
		return Token{Kind: TokError, Span: l.span(start)}
	}
	nameStart := l.pos
	for isIdentCont(l.peekByte()) {
		l.pos++
	}
	return Token{Kind: kind, Literal: string(l.src[nameStart:l.pos]), Span: l.span(start)}
}

func (l *Lexer) scanIdent(start int) Token {
	for isIdentCont(l.peekByte()) {
		l.pos++
	}
	text := string(l.src[start:l.pos])

	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Literal: text, Span: l.span(start)}
	}
	if b, ok := boolLiterals[text]; ok {
		return Token{Kind: TokBool, Literal: text, BoolValue: b, Span: l.span(start)}
	}
	if text == "null" {
		return Token{Kind: TokNull, Literal: text, Span: l.span(start)}
	}
	return Token{Kind: TokIdent, Literal: text, Span: l.span(start)}
}

// scanNumber accepts an optional leading '-', an integer part, and an
// optional fractional part. No exponent is required for compatibility
// malformed forms (bare '-', trailing '.', double '.') are
// reported as InvalidNumber and the lexer still advances past them.
func (l *Lexer) scanNumber(start int) Token {
	if l.peekByte() == '-' {
		l.pos++
	}
	digitsStart := l.pos
	for isDigit(l.peekByte()) {
		l.pos++
	}
	hasIntDigits := l.pos > digitsStart

	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		l.pos++ // consume '.'
		for isDigit(l.peekByte()) {
			l.pos++
		}
	} else if l.peekByte() == '.' {
		// A trailing '.' with no fractional digits: consume it so the
		// caller doesn't re-lex it as Dot, but flag the literal.
		l.pos++
		for isDigit(l.peekByte()) {
			l.pos++
		}
	}

	// A second '.' run directly abutting the first (as in "1.2.3") is
	// part of the same malformed literal, not a separate Dot token.
	for l.peekByte() == '.' {
		l.pos++
		for isDigit(l.peekByte()) {
			l.pos++
		}
	}

	text := string(l.src[start:l.pos])
	if !hasIntDigits || strings.HasSuffix(text, ".") || strings.Count(text, ".") > 1 {
		l.emit(KindInvalidNumber, start, "invalid number literal %q", text)
		return Token{Kind: TokError, Literal: text, Span: l.span(start)}
	}

	value, ok := parseDecimal(text)
	if !ok {
		l.emit(KindInvalidNumber, start, "invalid number literal %q", text)
		return Token{Kind: TokError, Literal: text, Span: l.span(start)}
	}
	return Token{Kind: TokNumber, Literal: text, NumberValue: value, Span: l.span(start)}
}

// scanString decodes a double-quoted string with JSON escape sequences.
// An unterminated string reaches end-of-file and is reported there.
func (l *Lexer) scanString(start int) Token {
	l.pos++ // opening quote
	var out strings.Builder

	for {
		if l.pos >= len(l.src) {
			l.emit(KindUnterminatedString, start, "unterminated string literal")
			return Token{Kind: TokError, Literal: out.String(), Span: l.span(start)}
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			return Token{Kind: TokString, Literal: out.String(), Span: l.span(start)}
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				l.emit(KindUnterminatedString, start, "unterminated string literal")
				return Token{Kind: TokError, Literal: out.String(), Span: l.span(start)}
			}
			esc := l.src[l.pos]
			switch esc {
			case '"':
				out.WriteByte('"')
				l.pos++
			case '\\':
				out.WriteByte('\\')
				l.pos++
			case '/':
				out.WriteByte('/')
				l.pos++
			case 'b':
				out.WriteByte('\b')
				l.pos++
			case 'f':
				out.WriteByte('\f')
				l.pos++
			case 'n':
				out.WriteByte('\n')
				l.pos++
			case 'r':
				out.WriteByte('\r')
				l.pos++
			case 't':
				out.WriteByte('\t')
				l.pos++
			case 'u':
				escStart := l.pos - 1
				l.pos++
				if l.pos+4 > len(l.src) {
					l.emit(KindInvalidEscape, escStart, "incomplete \\u escape")
					return Token{Kind: TokError, Literal: out.String(), Span: l.span(start)}
				}
				hex := string(l.src[l.pos : l.pos+4])
				r, ok := parseHex4(hex)
				if !ok {
					l.emit(KindInvalidEscape, escStart, "invalid \\u escape %q", hex)
				} else {
					out.WriteRune(rune(r))
				}
				l.pos += 4
			default:
				l.emit(KindInvalidEscape, l.pos-1, "invalid escape sequence \\%c", esc)
				out.WriteByte(esc)
				l.pos++
			}
			continue
		}
		out.WriteByte(c)
		l.pos++
	}
}

func parseHex4(s string) (int, bool) {
	val := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return 0, false
		}
	}
	return val, true
}

func parseDecimal(s string) (float64, bool) {
	neg := false
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	var intPart, fracPart float64
	fracDiv := 1.0
	seenDigit := false
	afterDot := false
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			afterDot = true
			continue
		}
		if c < '0' || c > '9' {
			return 0, false
		}
		seenDigit = true
		d := float64(c - '0')
		if afterDot {
			fracDiv *= 10
			fracPart += d / fracDiv
		} else {
			intPart = intPart*10 + d
		}
	}
	if !seenDigit {
		return 0, false
	}
	v := intPart + fracPart
	if neg {
		v = -v
	}
	return v, true
}
