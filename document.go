package mon

import "github.com/mycelmon/mon/pkg/ast"

// ResolvedDocument is the output of the Resolver/Validator stages: a tree
// of ResolvedValue with every anchor, alias, spread, import, and type
// declaration already materialized or stripped away.
type ResolvedDocument struct {
	Root   ResolvedValue
	Source string
}

// ResolvedKind mirrors ast.ValueKind but without Alias/EnumRef/TypeDef:
// by the time a value reaches this stage those have been replaced by
// their materialized or validated form.
type ResolvedKind int

const (
	ResolvedObject ResolvedKind = iota
	ResolvedArray
	ResolvedString
	ResolvedNumber
	ResolvedBool
	ResolvedNull
)

// ResolvedField is one entry of a ResolvedObject, kept in insertion order
// so the Serializer can emit members deterministically.
type ResolvedField struct {
	Key   string
	Value ResolvedValue
}

// ResolvedValue is a fully materialized, fully validated node. Origin
// tracks the span the value (or the alias/spread that produced it) came
// from, for diagnostics raised during or after validation.
type ResolvedValue struct {
	Kind     ResolvedKind
	Fields   []ResolvedField // ResolvedObject
	Elements []ResolvedValue // ResolvedArray
	Str      string          // ResolvedString, or the enum variant name once validated
	Num      float64
	NumLit   string
	Bool     bool
	Origin   ast.Span
}

func (v ResolvedValue) field(key string) (ResolvedValue, bool) {
	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return ResolvedValue{}, false
}

func (v ResolvedValue) withField(key string, val ResolvedValue) ResolvedValue {
	for i, f := range v.Fields {
		if f.Key == key {
			v.Fields[i].Value = val
			return v
		}
	}
	v.Fields = append(v.Fields, ResolvedField{Key: key, Value: val})
	return v
}
