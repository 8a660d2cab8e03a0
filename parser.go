package mon

import (
	"github.com/mycelmon/mon/pkg/ast"
)

// ParserOption configures a Parser using the usual functional-option
// pattern.
type ParserOption func(*parserConfig)

type parserConfig struct {
	// maxDiagnostics caps how many diagnostics a single Parse call
	// records; the parser keeps walking the token stream regardless, so
	// a pathological document can't exhaust memory on diagnostics alone.
	// 0 means unlimited.
	maxDiagnostics int
}

// WithMaxDiagnostics caps how many syntax diagnostics a single Parse call
// will record. Lexical diagnostics from the Lexer are not capped.
func WithMaxDiagnostics(n int) ParserOption {
	return func(c *parserConfig) { c.maxDiagnostics = n }
}

// Parser turns a token stream into an *ast.Document, never failing
// outright: on any expected-token absence it emits a diagnostic and
// either synthesizes a placeholder or resynchronizes.
type Parser struct {
	cfg parserConfig
}

// NewParser creates a Parser with default configuration.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(&p.cfg)
	}
	return p
}

// Parse tokenizes and parses src, always returning a non-nil *ast.Document
// plus every diagnostic collected along the way.
func (p *Parser) Parse(src []byte, sourceID string) (*ast.Document, Diagnostics) {
	lex := NewLexer(src, sourceID)
	s := &parseState{lex: lex, cfg: p.cfg}
	s.advance()
	doc := s.parseDocument()
	diags := append(Diagnostics{}, lex.Diagnostics()...)
	diags = append(diags, s.diags...)
	return doc, diags
}

type parseState struct {
	lex   *Lexer
	cur   Token
	cfg   parserConfig
	diags Diagnostics
}

func (s *parseState) advance() {
	s.cur = s.lex.Next()
}

func (s *parseState) record(d Diagnostic) {
	if s.cfg.maxDiagnostics > 0 && len(s.diags) >= s.cfg.maxDiagnostics {
		return
	}
	s.diags = append(s.diags, d)
}

func (s *parseState) errorf(kind Kind, format string, args ...any) {
	s.record(newDiagnostic(kind, s.cur.Span, format, args...))
}

func (s *parseState) expectUnexpected(expected string) {
	s.errorf(KindUnexpectedToken, "expected %s, found %s", expected, s.describeCur())
}

func (s *parseState) describeCur() string {
	if s.cur.Kind == TokIdent || s.cur.Kind == TokString {
		return s.cur.Kind.String() + " " + quote(s.cur.Literal)
	}
	return s.cur.Kind.String()
}

func quote(s string) string {
	return "\"" + s + "\""
}

// expect consumes cur if it matches kind; otherwise it records an
// UnexpectedToken diagnostic and leaves cur in place so the caller can
// decide how to resynchronize.
func (s *parseState) expect(kind TokenKind) (Token, bool) {
	if s.cur.Kind == kind {
		t := s.cur
		s.advance()
		return t, true
	}
	s.expectUnexpected(kind.String())
	return s.cur, false
}

// syncToAny advances past tokens until cur is one of kinds or Eof.
func (s *parseState) syncToAny(kinds ...TokenKind) {
	for s.cur.Kind != TokEOF {
		for _, k := range kinds {
			if s.cur.Kind == k {
				return
			}
		}
		s.advance()
	}
}

// prevEnd approximates the end of the statement just parsed using the
// span of the token the parser is now sitting on; good enough for
// diagnostic ranges, which only need to point near the statement.
func (s *parseState) prevEnd() ast.Span {
	return s.cur.Span
}

func (s *parseState) parseDocument() *ast.Document {
	doc := &ast.Document{}
	for s.cur.Kind == TokImport {
		doc.Imports = append(doc.Imports, s.parseImportStmt())
	}

	if s.cur.Kind != TokLBrace {
		s.expectUnexpected("'{'")
		s.syncToAny(TokLBrace)
	}
	if s.cur.Kind == TokLBrace {
		root := s.parseObjectValue()
		doc.Root = &root
	} else {
		doc.Root = &ast.Value{Kind: ast.ObjectKind{}, Span: s.cur.Span}
	}

	if s.cur.Kind != TokEOF {
		s.errorf(KindUnexpectedToken, "unexpected trailing content after the root object: %s", s.describeCur())
	}
	return doc
}

func (s *parseState) parseImportStmt() ast.ImportStmt {
	start := s.cur.Span
	s.advance() // consume 'import'

	switch s.cur.Kind {
	case TokStar:
		s.advance()
		s.expect(TokAs)
		name := s.expectIdentLiteral()
		s.expect(TokFrom)
		path := s.parseImportPath()
		return ast.NamespaceImport{AsName: name, Path: path, Span: ast.Join(start, s.prevEnd())}
	case TokLBrace:
		s.advance()
		var specs []ast.ImportSpec
		for s.cur.Kind != TokRBrace && s.cur.Kind != TokEOF {
			var spec ast.ImportSpec
			if s.cur.Kind == TokAnchor {
				spec = ast.ImportSpec{Name: s.cur.Literal, IsAnchor: true}
				s.advance()
			} else {
				spec = ast.ImportSpec{Name: s.expectIdentLiteral()}
			}
			specs = append(specs, spec)
			if s.cur.Kind == TokComma {
				s.advance()
				continue
			}
			break
		}
		s.expect(TokRBrace)
		s.expect(TokFrom)
		path := s.parseImportPath()
		return ast.NamedImport{Specs: specs, Path: path, Span: ast.Join(start, s.prevEnd())}
	default:
		s.expectUnexpected("'*' or '{'")
		s.syncToAny(TokFrom, TokImport, TokLBrace, TokEOF)
		path := ""
		if s.cur.Kind == TokFrom {
			s.advance()
			path = s.parseImportPath()
		}
		return ast.NamedImport{Path: path, Span: ast.Join(start, s.prevEnd())}
	}
}

func (s *parseState) parseImportPath() string {
	if s.cur.Kind != TokString {
		s.errorf(KindMissingImportPath, "import statement requires a string path")
		return ""
	}
	path := s.cur.Literal
	s.advance()
	return path
}

func (s *parseState) expectIdentLiteral() string {
	if s.cur.Kind != TokIdent {
		s.expectUnexpected("identifier")
		return ""
	}
	name := s.cur.Literal
	s.advance()
	return name
}

// parseKey implements Key ::= Ident | String.
func (s *parseState) parseKey() (name string, isString bool) {
	switch s.cur.Kind {
	case TokIdent:
		name = s.cur.Literal
		s.advance()
		return name, false
	case TokString:
		name = s.cur.Literal
		isString = true
		s.advance()
		return name, true
	default:
		s.expectUnexpected("a key")
		return "<error>", false
	}
}

// parseObjectValue implements Object ::= "{" [ Member {"," Member} [","] ] "}".
func (s *parseState) parseObjectValue() ast.Value {
	start := s.cur.Span
	s.advance() // consume '{'

	var members []ast.Member
	for s.cur.Kind != TokRBrace && s.cur.Kind != TokEOF {
		member := s.parseMember()
		if member != nil {
			members = append(members, member)
		}

		switch s.cur.Kind {
		case TokComma:
			s.advance()
		case TokRBrace:
			// trailing comma optional; loop condition exits.
		default:
			// Missing comma: emit a diagnostic but keep going, treating
			// the next token as the start of the next member.
			s.errorf(KindUnexpectedToken, "expected ',' or '}', found %s", s.describeCur())
		}
	}
	end, ok := s.expect(TokRBrace)
	span := start
	if ok {
		span = ast.Join(start, end.Span)
	}
	return ast.Value{Kind: ast.ObjectKind{Members: members}, Span: span}
}

// parseMember implements Member ::= Spread | Pair | TypeDefPair (with
// TypeDefPair folded into Pair: see parseValue's '#' handling).
func (s *parseState) parseMember() ast.Member {
	if s.cur.Kind == TokSpread {
		start := s.cur.Span
		s.advance()
		if s.cur.Kind != TokAlias {
			s.errorf(KindInvalidSpreadContext, "'...' must be immediately followed by an alias")
			s.syncToAny(TokComma, TokRBrace, TokRBracket, TokEOF)
			return ast.Spread{Span: start}
		}
		name := s.cur.Literal
		span := ast.Join(start, s.cur.Span)
		s.advance()
		return ast.Spread{AliasName: name, Span: span}
	}
	return s.parsePair()
}

func (s *parseState) parsePair() ast.Pair {
	start := s.cur.Span
	var anchor string
	var key string
	var isString bool
	if s.cur.Kind == TokAnchor {
		// "&name: value" registers an anchor and uses the same name as
		// the pair's key; there is no separate key token following the
		// anchor.
		anchor = s.cur.Literal
		key = anchor
		s.advance()
	} else {
		key, isString = s.parseKey()
	}

	var validation *ast.TypeExpr
	var sep byte
	switch {
	case s.cur.Kind == TokDoubleColon:
		s.advance()
		te := s.parseTypeExpr()
		validation = &te
		if s.cur.Kind == TokEquals {
			s.advance()
		} else {
			s.errorf(KindUnexpectedToken, "a validated pair ('k :: T = v') must use '=', found %s", s.describeCur())
			if s.cur.Kind == TokColon {
				s.advance()
			}
		}
		sep = '='
	case s.cur.Kind == TokEquals:
		s.errorf(KindUnexpectedToken, "a plain pair must use ':', found '='")
		s.advance()
		sep = ':'
	case s.cur.Kind == TokColon:
		s.advance()
		sep = ':'
	default:
		s.expectUnexpected("':' or '::'")
		sep = ':'
	}

	value := s.parseValue()
	value.Anchor = anchor
	return ast.Pair{
		Key:         key,
		KeyIsString: isString,
		Validation:  validation,
		Sep:         sep,
		Value:       value,
		Span:        ast.Join(start, value.Span),
	}
}

func (s *parseState) parseValue() ast.Value {
	switch s.cur.Kind {
	case TokLBrace:
		return s.parseObjectValue()
	case TokLBracket:
		return s.parseArrayValue()
	case TokAlias:
		span := s.cur.Span
		name := s.cur.Literal
		s.advance()
		return ast.Value{Kind: ast.AliasKind{Name: name}, Span: span}
	case TokDollar:
		return s.parseEnumRefValue()
	case TokString:
		span := s.cur.Span
		v := s.cur.Literal
		s.advance()
		return ast.Value{Kind: ast.StringKind{Value: v}, Span: span}
	case TokNumber:
		span := s.cur.Span
		lit, v := s.cur.Literal, s.cur.NumberValue
		s.advance()
		return ast.Value{Kind: ast.NumberKind{Literal: lit, Value: v}, Span: span}
	case TokBool:
		span := s.cur.Span
		v := s.cur.BoolValue
		s.advance()
		return ast.Value{Kind: ast.BoolKind{Value: v}, Span: span}
	case TokNull:
		span := s.cur.Span
		s.advance()
		return ast.Value{Kind: ast.NullKind{}, Span: span}
	case TokHash:
		return s.parseTypeDeclValue()
	case TokAnchor:
		// "&name" only declares an anchor as a pair's key; anywhere else
		// (as a value, inside an array, as a spread target) it has no
		// value to produce.
		span := s.cur.Span
		s.errorf(KindInvalidAnchorTarget, "'&%s' cannot appear here; anchors only label a pair's key", s.cur.Literal)
		s.advance()
		return ast.Value{Kind: ast.NullKind{}, Span: span}
	default:
		span := s.cur.Span
		s.expectUnexpected("a value")
		if s.cur.Kind != TokEOF {
			s.advance()
		}
		return ast.Value{Kind: ast.NullKind{}, Span: span}
	}
}

// spreadMarker tags an AliasKind array element as having come from a
// "...*name" spread rather than a plain "*name" alias, since both desugar
// to the same AliasKind once sitting inside an array's element list. The
// resolver concatenates elements so marked instead of inserting a single
// alias value.
const spreadMarker = "\x00spread"

// parseArrayValue implements Array ::= "[" [ AElt {"," AElt} [","] ] "]"
// with AElt ::= Value | Spread.
func (s *parseState) parseArrayValue() ast.Value {
	start := s.cur.Span
	s.advance() // consume '['

	var elements []ast.Value
	for s.cur.Kind != TokRBracket && s.cur.Kind != TokEOF {
		if s.cur.Kind == TokSpread {
			spreadStart := s.cur.Span
			s.advance()
			if s.cur.Kind != TokAlias {
				s.errorf(KindInvalidSpreadContext, "'...' must be immediately followed by an alias")
				s.syncToAny(TokComma, TokRBracket, TokEOF)
			} else {
				name := s.cur.Literal
				span := ast.Join(spreadStart, s.cur.Span)
				s.advance()
				elements = append(elements, ast.Value{Kind: ast.AliasKind{Name: name}, Span: span, Anchor: spreadMarker})
			}
		} else {
			elements = append(elements, s.parseValue())
		}

		switch s.cur.Kind {
		case TokComma:
			s.advance()
		case TokRBracket:
		default:
			s.errorf(KindUnexpectedToken, "expected ',' or ']', found %s", s.describeCur())
		}
	}
	end, ok := s.expect(TokRBracket)
	span := start
	if ok {
		span = ast.Join(start, end.Span)
	}
	return ast.Value{Kind: ast.ArrayKind{Elements: elements}, Span: span}
}

func (s *parseState) parseEnumRefValue() ast.Value {
	start := s.cur.Span
	s.advance() // consume '$'
	first := s.expectIdentLiteral()
	s.expect(TokDot)
	second := s.expectIdentLiteral()

	if s.cur.Kind == TokDot {
		s.advance()
		third := s.expectIdentLiteral()
		return ast.Value{
			Kind: ast.EnumRefKind{Namespace: first, EnumName: second, Variant: third},
			Span: ast.Join(start, s.prevEnd()),
		}
	}
	return ast.Value{
		Kind: ast.EnumRefKind{EnumName: first, Variant: second},
		Span: ast.Join(start, s.prevEnd()),
	}
}

func (s *parseState) parseTypeDeclValue() ast.Value {
	start := s.cur.Span
	s.advance() // consume '#'

	switch s.cur.Kind {
	case TokStruct:
		s.advance()
		decl := s.parseStructBody(start)
		return ast.Value{Kind: ast.TypeDefKind{Decl: decl}, Span: decl.Span}
	case TokEnum:
		s.advance()
		decl := s.parseEnumBody(start)
		return ast.Value{Kind: ast.TypeDefKind{Decl: decl}, Span: decl.Span}
	default:
		s.expectUnexpected("'struct' or 'enum'")
		return ast.Value{Kind: ast.NullKind{}, Span: start}
	}
}

// parseStructBody implements StructBody ::= "{" [ Field {"," Field} [","] ] "}"
// with Field ::= Ident "(" TypeExpr ")" ["=" Value].
func (s *parseState) parseStructBody(start ast.Span) ast.StructDecl {
	s.expect(TokLBrace)
	var fields []ast.StructField
	seen := map[string]bool{}
	for s.cur.Kind != TokRBrace && s.cur.Kind != TokEOF {
		fieldStart := s.cur.Span
		name := s.expectIdentLiteral()
		if seen[name] {
			s.record(newDiagnostic(KindDuplicateField, fieldStart, "duplicate struct field %q", name))
		}
		seen[name] = true

		s.expect(TokLParen)
		ty := s.parseTypeExpr()
		s.expect(TokRParen)

		var def *ast.Value
		if s.cur.Kind == TokEquals {
			s.advance()
			v := s.parseValue()
			def = &v
		}

		fields = append(fields, ast.StructField{
			Name:    name,
			Type:    ty,
			Default: def,
			Span:    ast.Join(fieldStart, s.prevEnd()),
		})

		switch s.cur.Kind {
		case TokComma:
			s.advance()
		case TokRBrace:
		default:
			s.errorf(KindUnexpectedToken, "expected ',' or '}', found %s", s.describeCur())
		}
	}
	end, ok := s.expect(TokRBrace)
	span := start
	if ok {
		span = ast.Join(start, end.Span)
	}
	return ast.StructDecl{Fields: fields, Span: span}
}

// parseEnumBody implements EnumBody ::= "{" [ Ident {"," Ident} [","] ] "}".
func (s *parseState) parseEnumBody(start ast.Span) ast.EnumDecl {
	s.expect(TokLBrace)
	var variants []string
	seen := map[string]bool{}
	for s.cur.Kind != TokRBrace && s.cur.Kind != TokEOF {
		variantStart := s.cur.Span
		name := s.expectIdentLiteral()
		if seen[name] {
			s.record(newDiagnostic(KindDuplicateEnumVariant, variantStart, "duplicate enum variant %q", name))
		}
		seen[name] = true
		variants = append(variants, name)

		switch s.cur.Kind {
		case TokComma:
			s.advance()
		case TokRBrace:
		default:
			s.errorf(KindUnexpectedToken, "expected ',' or '}', found %s", s.describeCur())
		}
	}
	end, ok := s.expect(TokRBrace)
	span := start
	if ok {
		span = ast.Join(start, end.Span)
	}
	return ast.EnumDecl{Variants: variants, Span: span}
}

var primitiveTypeNames = map[string]ast.PrimitiveKind{
	"String":  ast.PrimString,
	"Number":  ast.PrimNumber,
	"Boolean": ast.PrimBoolean,
	"Null":    ast.PrimNull,
	"Object":  ast.PrimObject,
	"Array":   ast.PrimArray,
	"Any":     ast.PrimAny,
}

// parseTypeExpr implements
// TypeExpr ::= Primitive | Ident ["." Ident] | "[" TElt {"," TElt} "]".
func (s *parseState) parseTypeExpr() ast.TypeExpr {
	if s.cur.Kind == TokLBracket {
		return s.parseCollectionType()
	}
	if s.cur.Kind == TokIdent {
		name := s.cur.Literal
		s.advance()
		if s.cur.Kind == TokDot {
			s.advance()
			second := s.expectIdentLiteral()
			return ast.NamespacedType{Namespace: name, Name: second}
		}
		if prim, ok := primitiveTypeNames[name]; ok {
			return ast.PrimitiveType{Kind: prim}
		}
		return ast.NamedType{Name: name}
	}
	s.expectUnexpected("a type expression")
	if s.cur.Kind != TokEOF {
		s.advance()
	}
	return ast.PrimitiveType{Kind: ast.PrimAny}
}

// parseCollectionType implements "[" TElt {"," TElt} "]" with
// TElt ::= TypeExpr ["..."].
func (s *parseState) parseCollectionType() ast.TypeExpr {
	s.advance() // consume '['
	var elems []ast.CollectionElem
	for s.cur.Kind != TokRBracket && s.cur.Kind != TokEOF {
		ty := s.parseTypeExpr()
		variadic := false
		if s.cur.Kind == TokSpread {
			variadic = true
			s.advance()
		}
		elems = append(elems, ast.CollectionElem{Type: ty, Variadic: variadic})

		switch s.cur.Kind {
		case TokComma:
			s.advance()
		case TokRBracket:
		default:
			s.errorf(KindUnexpectedToken, "expected ',' or ']', found %s", s.describeCur())
		}
	}
	s.expect(TokRBracket)
	return ast.CollectionType{Elements: elems}
}
