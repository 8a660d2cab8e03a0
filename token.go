package mon

import "github.com/mycelmon/mon/pkg/ast"

// TokenKind tags the variants of Token the lexer can produce.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokError

	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokLParen
	TokRParen
	TokColon
	TokDoubleColon
	TokEquals
	TokComma
	TokDot
	TokSpread
	TokAnchor // &name
	TokAlias  // *name
	TokStar   // bare '*', used only by "import * as ns"
	TokDollar
	TokHash

	TokIdent
	TokString
	TokNumber
	TokBool
	TokNull

	TokImport
	TokFrom
	TokAs
	TokStruct
	TokEnum
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokError:
		return "<error>"
	case TokLBrace:
		return "{"
	case TokRBrace:
		return "}"
	case TokLBracket:
		return "["
	case TokRBracket:
		return "]"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokColon:
		return ":"
	case TokDoubleColon:
		return "::"
	case TokEquals:
		return "="
	case TokComma:
		return ","
	case TokDot:
		return "."
	case TokSpread:
		return "..."
	case TokAnchor:
		return "&name"
	case TokAlias:
		return "*name"
	case TokStar:
		return "*"
	case TokDollar:
		return "$"
	case TokHash:
		return "#"
	case TokIdent:
		return "identifier"
	case TokString:
		return "string"
	case TokNumber:
		return "number"
	case TokBool:
		return "boolean"
	case TokNull:
		return "null"
	case TokImport:
		return "import"
	case TokFrom:
		return "from"
	case TokAs:
		return "as"
	case TokStruct:
		return "struct"
	case TokEnum:
		return "enum"
	default:
		return "?"
	}
}

// Token is one lexical unit plus its byte span. Literal holds the raw
// source text for idents/numbers, the escape-decoded text for strings,
// and the bound name for Anchor/Alias tokens. BoolValue/NumberValue carry
// the decoded payload for Bool/Number tokens.
type Token struct {
	Kind        TokenKind
	Literal     string
	BoolValue   bool
	NumberValue float64
	Span        ast.Span
}

var keywords = map[string]TokenKind{
	"import": TokImport,
	"from":   TokFrom,
	"as":     TokAs,
	"struct": TokStruct,
	"enum":   TokEnum,
}

var boolLiterals = map[string]bool{
	"true": true,
	"on":   true,
	"false": false,
	"off":   false,
}
