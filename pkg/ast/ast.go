package ast

// Document is the top-level parse result: zero or more imports followed
// by a single root object.
type Document struct {
	Imports []ImportStmt
	Root    *Value
}

// Value is a node in the syntax tree. Anchor is the name bound by a
// leading "&name" on the enclosing pair, "" when the value is not
// anchored. Kind carries the variant-specific payload.
type Value struct {
	Kind   ValueKind
	Anchor string
	Span   Span
}

// ValueKind is a sealed sum type over the shapes a Value can take: an
// unexported marker method restricts implementations to this package.
type ValueKind interface {
	astValueKind()
}

type ObjectKind struct{ Members []Member }

func (ObjectKind) astValueKind() {}

type ArrayKind struct{ Elements []Value }

func (ArrayKind) astValueKind() {}

type StringKind struct{ Value string }

func (StringKind) astValueKind() {}

// NumberKind keeps the literal text alongside the parsed value so the
// serializer can decide between an integer and a decimal rendering
// without re-deriving it from a float64.
type NumberKind struct {
	Literal string
	Value   float64
}

func (NumberKind) astValueKind() {}

type BoolKind struct{ Value bool }

func (BoolKind) astValueKind() {}

type NullKind struct{}

func (NullKind) astValueKind() {}

// PoisonedKind stands in for a value whose resolution already failed
// (an alias naming an unknown anchor). It carries no data of its own;
// its only job is to
// tell the validator a diagnostic was already raised for this node so
// it should skip re-checking it rather than raising a second one.
type PoisonedKind struct{}

func (PoisonedKind) astValueKind() {}

// AliasKind is a "*name" reference, replaced by a deep copy of the
// anchored value during resolution.
type AliasKind struct{ Name string }

func (AliasKind) astValueKind() {}

// EnumRefKind is a "$Name.Variant" or "$ns.Name.Variant" reference.
type EnumRefKind struct {
	Namespace string // "" unless namespaced via $ns.Enum.Variant
	EnumName  string
	Variant   string
}

func (EnumRefKind) astValueKind() {}

// TypeDefKind wraps a #struct/#enum declaration. The parser accepts it
// wherever a value may appear; pairs whose value is a TypeDefKind are
// stripped from the canonical output.
type TypeDefKind struct{ Decl TypeDecl }

func (TypeDefKind) astValueKind() {}

// Member is either a key/value Pair or a "...*name" Spread.
type Member interface {
	astMember()
}

// Pair is "[&Ident] Key [:: TypeExpr] (':' | '=') Value". Validation is
// nil for a plain ':' pair; Sep records which separator was used so the
// validator can enforce that '=' only ever pairs with a Validation.
type Pair struct {
	Key         string
	KeyIsString bool
	Validation  *TypeExpr
	Sep         byte // ':' or '='
	Value       Value
	Span        Span
}

func (Pair) astMember() {}

// Spread is "...*name" inside an object or array.
type Spread struct {
	AliasName string
	Span      Span
}

func (Spread) astMember() {}

// ImportStmt is either a namespace import ("import * as ns from ...")
// or a named-members import ("import { A, &B } from ...").
type ImportStmt interface {
	astImport()
	ImportSpan() Span
	ImportPath() string
}

type NamespaceImport struct {
	AsName string
	Path   string
	Span   Span
}

func (NamespaceImport) astImport()          {}
func (n NamespaceImport) ImportSpan() Span   { return n.Span }
func (n NamespaceImport) ImportPath() string { return n.Path }

type ImportSpec struct {
	Name     string
	IsAnchor bool
}

type NamedImport struct {
	Specs []ImportSpec
	Path  string
	Span  Span
}

func (NamedImport) astImport()          {}
func (n NamedImport) ImportSpan() Span   { return n.Span }
func (n NamedImport) ImportPath() string { return n.Path }

// TypeDecl is a #struct or #enum declaration.
type TypeDecl interface {
	astTypeDecl()
}

type StructField struct {
	Name    string
	Type    TypeExpr
	Default *Value // nil when the field has no default
	Span    Span
}

type StructDecl struct {
	Fields []StructField
	Span   Span
}

func (StructDecl) astTypeDecl() {}

type EnumDecl struct {
	Variants []string
	Span     Span
}

func (EnumDecl) astTypeDecl() {}

// TypeExpr is a type expression appearing after "::" or inside a struct
// field's "(...)".
type TypeExpr interface {
	astTypeExpr()
}

type PrimitiveKind int

const (
	PrimString PrimitiveKind = iota
	PrimNumber
	PrimBoolean
	PrimNull
	PrimObject
	PrimArray
	PrimAny
)

type PrimitiveType struct{ Kind PrimitiveKind }

func (PrimitiveType) astTypeExpr() {}

type NamedType struct{ Name string }

func (NamedType) astTypeExpr() {}

type NamespacedType struct {
	Namespace string
	Name      string
}

func (NamespacedType) astTypeExpr() {}

// CollectionElem is one element of a "[T1, T2..., T3]" collection pattern.
// At most one element in a CollectionType may set Variadic; the
// validator rejects a pattern that sets it on more than one.
type CollectionElem struct {
	Type     TypeExpr
	Variadic bool
}

type CollectionType struct{ Elements []CollectionElem }

func (CollectionType) astTypeExpr() {}
