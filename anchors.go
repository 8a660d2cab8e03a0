package mon

import "github.com/mycelmon/mon/pkg/ast"

// hoistAnchors walks root once, collecting every "&name: value" pair
// into a name -> raw-declaration table. Anchors are file-global even
// when declared on a deeply nested member, so the walk descends into
// every object and array, not just the top level.
func hoistAnchors(root *ast.Value, sourceID string) (map[string]ast.Value, Diagnostics) {
	anchors := map[string]ast.Value{}
	var diags Diagnostics

	var walkValue func(v ast.Value)
	walkMembers := func(members []ast.Member) {
		for _, mem := range members {
			pair, ok := mem.(ast.Pair)
			if !ok {
				continue
			}
			if pair.Value.Anchor != "" {
				if existing, exists := anchors[pair.Value.Anchor]; exists {
					diags = append(diags, newDiagnostic(
						KindDuplicateAnchor, pair.Value.Span,
						"duplicate anchor %q", pair.Value.Anchor,
					).withRelated(existing.Span))
				} else {
					anchors[pair.Value.Anchor] = pair.Value
				}
			}
			walkValue(pair.Value)
		}
	}
	walkValue = func(v ast.Value) {
		switch k := v.Kind.(type) {
		case ast.ObjectKind:
			walkMembers(k.Members)
		case ast.ArrayKind:
			for _, el := range k.Elements {
				walkValue(el)
			}
		}
	}

	walkValue(*root)
	return anchors, diags
}

// materializer replaces every AliasKind and Spread in a document with
// the deep-copied, fully resolved value it stands for. Anchor
// resolution is lazy and memoized so that an alias used before its
// anchor's lexical declaration
// produces the same result as one used after it.
type materializer struct {
	raw       map[string]ast.Value
	resolved  map[string]ast.Value
	resolving map[string]bool
	diags     Diagnostics
}

// alreadyReported reports whether kind is a stand-in value for which a
// second SpreadNotObject/SpreadNotArray diagnostic would be redundant: a
// cycle-broken self-reference (NullKind, nothing left to type-check) or
// an unknown-alias substitution (PoisonedKind, KindUnknownAlias already
// raised for it).
func alreadyReported(kind ast.ValueKind) bool {
	switch kind.(type) {
	case ast.NullKind, ast.PoisonedKind:
		return true
	default:
		return false
	}
}

func (m *materializer) resolveAnchor(name string, useSpan ast.Span) ast.Value {
	if v, ok := m.resolved[name]; ok {
		return v
	}
	raw, ok := m.raw[name]
	if !ok {
		m.diags = append(m.diags, newDiagnostic(KindUnknownAlias, useSpan, "unknown alias %q", name))
		return ast.Value{Kind: ast.PoisonedKind{}, Span: useSpan}
	}
	if m.resolving[name] {
		// Self-referential anchor: the resolved tree is meant to be
		// acyclic by construction and doesn't anticipate this case, so
		// break the cycle with a null leaf rather than recurse forever.
		return ast.Value{Kind: ast.NullKind{}, Span: useSpan}
	}
	m.resolving[name] = true
	out := m.value(raw)
	delete(m.resolving, name)
	m.resolved[name] = out
	return out
}

// value materializes a single Value node, recursing into objects and
// arrays and replacing aliases with deep copies of their anchor. A
// #struct declaration's field defaults are themselves Values that may
// alias an anchor, so they get the same treatment rather than being
// left as raw syntax for the validator to trip over later.
func (m *materializer) value(v ast.Value) ast.Value {
	switch k := v.Kind.(type) {
	case ast.ObjectKind:
		v.Kind = ast.ObjectKind{Members: m.members(k.Members)}
		return v
	case ast.ArrayKind:
		v.Kind = ast.ArrayKind{Elements: m.elements(k.Elements)}
		return v
	case ast.AliasKind:
		out := deepCopyValue(m.resolveAnchor(k.Name, v.Span))
		out.Span = v.Span
		return out
	case ast.TypeDefKind:
		v.Kind = ast.TypeDefKind{Decl: m.typeDecl(k.Decl)}
		return v
	default:
		return v
	}
}

func (m *materializer) typeDecl(decl ast.TypeDecl) ast.TypeDecl {
	sd, ok := decl.(ast.StructDecl)
	if !ok {
		return decl
	}
	fields := make([]ast.StructField, len(sd.Fields))
	for i, f := range sd.Fields {
		fields[i] = f
		if f.Default != nil {
			dv := m.value(*f.Default)
			fields[i].Default = &dv
		}
	}
	return ast.StructDecl{Fields: fields, Span: sd.Span}
}

// members materializes an object's members, flattening spreads into
// their target's members at the spread's textual position. Duplicate
// keys are left for the validator's final flatten pass to resolve with
// "first position, last value wins" semantics — that single rule
// implements both local-overrides-spread and later-spread-overrides-
// earlier-spread without special-casing either here.
func (m *materializer) members(in []ast.Member) []ast.Member {
	var out []ast.Member
	for _, mem := range in {
		switch x := mem.(type) {
		case ast.Spread:
			anchorVal := m.resolveAnchor(x.AliasName, x.Span)
			if _, ok := anchorVal.Kind.(ast.ObjectKind); !ok {
				if !alreadyReported(anchorVal.Kind) {
					m.diags = append(m.diags, newDiagnostic(KindSpreadNotObject, x.Span, "spread target %q is not an object", x.AliasName))
				}
				continue
			}
			copyVal := deepCopyValue(anchorVal)
			out = append(out, copyVal.Kind.(ast.ObjectKind).Members...)
		case ast.Pair:
			var newVal ast.Value
			if x.Value.Anchor != "" {
				newVal = m.resolveAnchor(x.Value.Anchor, x.Span)
				newVal.Anchor = x.Value.Anchor
			} else {
				newVal = m.value(x.Value)
			}
			out = append(out, ast.Pair{
				Key:         x.Key,
				KeyIsString: x.KeyIsString,
				Validation:  x.Validation,
				Sep:         x.Sep,
				Value:       newVal,
				Span:        x.Span,
			})
		}
	}
	return out
}

// elements materializes an array's elements, concatenating spread
// targets in place.
func (m *materializer) elements(in []ast.Value) []ast.Value {
	var out []ast.Value
	for _, el := range in {
		if el.Anchor == spreadMarker {
			aliasName := el.Kind.(ast.AliasKind).Name
			anchorVal := m.resolveAnchor(aliasName, el.Span)
			if _, ok := anchorVal.Kind.(ast.ArrayKind); !ok {
				if !alreadyReported(anchorVal.Kind) {
					m.diags = append(m.diags, newDiagnostic(KindSpreadNotArray, el.Span, "spread target %q is not an array", aliasName))
				}
				continue
			}
			copyVal := deepCopyValue(anchorVal)
			out = append(out, copyVal.Kind.(ast.ArrayKind).Elements...)
			continue
		}
		out = append(out, m.value(el))
	}
	return out
}

// deepCopyValue returns an independent copy of v: every nested object
// and array gets fresh backing storage so mutating one alias
// materialization can never affect a sibling.
// Primitive leaves are copied by value, which Go already does. The
// origin span is kept as-is for diagnostics; the copy is never itself
// an anchor declaration, but anchored pairs nested inside it keep their
// anchor so they are stripped from the output like the original.
func deepCopyValue(v ast.Value) ast.Value {
	switch k := v.Kind.(type) {
	case ast.ObjectKind:
		members := make([]ast.Member, len(k.Members))
		for i, mem := range k.Members {
			if p, ok := mem.(ast.Pair); ok {
				val := deepCopyValue(p.Value)
				val.Anchor = p.Value.Anchor
				members[i] = ast.Pair{
					Key:         p.Key,
					KeyIsString: p.KeyIsString,
					Validation:  p.Validation,
					Sep:         p.Sep,
					Value:       val,
					Span:        p.Span,
				}
			} else {
				members[i] = mem
			}
		}
		v.Kind = ast.ObjectKind{Members: members}
	case ast.ArrayKind:
		elems := make([]ast.Value, len(k.Elements))
		for i, el := range k.Elements {
			elems[i] = deepCopyValue(el)
		}
		v.Kind = ast.ArrayKind{Elements: elems}
	}
	v.Anchor = ""
	return v
}

// resolvedToLiteralAST turns an already-validated ResolvedValue back
// into a plain ast.Value tree of object/array/leaf nodes, so a value
// imported across a document boundary (a named or anchor import) can
// flow through the same alias/spread materialization machinery as data
// declared locally.
func resolvedToLiteralAST(v ResolvedValue) ast.Value {
	switch v.Kind {
	case ResolvedObject:
		members := make([]ast.Member, len(v.Fields))
		for i, f := range v.Fields {
			members[i] = ast.Pair{Key: f.Key, Sep: ':', Value: resolvedToLiteralAST(f.Value), Span: f.Value.Origin}
		}
		return ast.Value{Kind: ast.ObjectKind{Members: members}, Span: v.Origin}
	case ResolvedArray:
		elems := make([]ast.Value, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = resolvedToLiteralAST(e)
		}
		return ast.Value{Kind: ast.ArrayKind{Elements: elems}, Span: v.Origin}
	case ResolvedString:
		return ast.Value{Kind: ast.StringKind{Value: v.Str}, Span: v.Origin}
	case ResolvedNumber:
		return ast.Value{Kind: ast.NumberKind{Literal: v.NumLit, Value: v.Num}, Span: v.Origin}
	case ResolvedBool:
		return ast.Value{Kind: ast.BoolKind{Value: v.Bool}, Span: v.Origin}
	default:
		return ast.Value{Kind: ast.NullKind{}, Span: v.Origin}
	}
}
