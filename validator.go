package mon

import "github.com/mycelmon/mon/pkg/ast"

// rawField is one flattened object member awaiting validation: its raw
// value plus whatever "::" annotation was attached to the pair that
// produced it.
type rawField struct {
	key        string
	value      ast.Value
	validation *ast.TypeExpr
}

// rawFields is an ordered, deduplicated view of an object's members.
// set implements "first position, last value wins": a key's slot in the
// order is fixed by its first occurrence, but a later occurrence (a
// local override of a spread-contributed key, or a later spread winning
// over an earlier one) replaces the value and validation recorded there.
type rawFields struct {
	items []rawField
	index map[string]int
}

func newRawFields() *rawFields {
	return &rawFields{index: map[string]int{}}
}

func (r *rawFields) set(key string, value ast.Value, validation *ast.TypeExpr) {
	if i, ok := r.index[key]; ok {
		r.items[i].value = value
		r.items[i].validation = validation
		return
	}
	r.index[key] = len(r.items)
	r.items = append(r.items, rawField{key: key, value: value, validation: validation})
}

func (r *rawFields) get(key string) (rawField, bool) {
	i, ok := r.index[key]
	if !ok {
		return rawField{}, false
	}
	return r.items[i], true
}

// flattenObject reads value's members into a rawFields table, dropping
// the two kinds of member that are templates rather than data: a pair
// declared under an anchor ("&name: ..."), and a pair whose value is a
// #struct/#enum declaration. By the time this runs, the materializer
// has already replaced every Spread with its target's members, so only
// Pair members remain.
func flattenObject(value ast.Value) *rawFields {
	out := newRawFields()
	obj, ok := value.Kind.(ast.ObjectKind)
	if !ok {
		return out
	}
	for _, mem := range obj.Members {
		pair, ok := mem.(ast.Pair)
		if !ok {
			continue
		}
		if pair.Value.Anchor != "" {
			continue
		}
		if _, isType := pair.Value.Kind.(ast.TypeDefKind); isType {
			continue
		}
		out.set(pair.Key, pair.Value, pair.Validation)
	}
	return out
}

// validator turns a materialized ast.Value tree into a ResolvedValue
// tree, applying every "::" structural annotation it finds and
// stripping the templates (anchors, type declarations) that
// flattenObject already excludes from each object's fields.
type validator struct {
	types *TypeRegistry
	scope *importScope
	diags Diagnostics
}

func (v *validator) errorf(kind Kind, span ast.Span, format string, args ...any) {
	v.diags = append(v.diags, newDiagnostic(kind, span, format, args...))
}

// validateObject converts an object node with no "::" annotation of its
// own, validating each field against whatever annotation its own pair
// carried.
func (v *validator) validateObject(value ast.Value) ResolvedValue {
	flat := flattenObject(value)
	var fields []ResolvedField
	for _, item := range flat.items {
		fields = append(fields, ResolvedField{Key: item.key, Value: v.validateValue(item.value, item.validation)})
	}
	return ResolvedValue{Kind: ResolvedObject, Fields: fields, Origin: value.Span}
}

// validateValue resolves value generically when validation is nil, or
// against the named type expression otherwise.
func (v *validator) validateValue(value ast.Value, validation *ast.TypeExpr) ResolvedValue {
	if _, poisoned := value.Kind.(ast.PoisonedKind); poisoned {
		return ResolvedValue{Kind: ResolvedNull, Origin: value.Span}
	}
	if validation != nil {
		return v.validateAgainstType(value, *validation)
	}
	switch k := value.Kind.(type) {
	case ast.ObjectKind:
		return v.validateObject(value)
	case ast.ArrayKind:
		elems := make([]ResolvedValue, len(k.Elements))
		for i, el := range k.Elements {
			elems[i] = v.validateValue(el, nil)
		}
		return ResolvedValue{Kind: ResolvedArray, Elements: elems, Origin: value.Span}
	case ast.StringKind:
		return ResolvedValue{Kind: ResolvedString, Str: k.Value, Origin: value.Span}
	case ast.NumberKind:
		return ResolvedValue{Kind: ResolvedNumber, Num: k.Value, NumLit: k.Literal, Origin: value.Span}
	case ast.BoolKind:
		return ResolvedValue{Kind: ResolvedBool, Bool: k.Value, Origin: value.Span}
	case ast.NullKind:
		return ResolvedValue{Kind: ResolvedNull, Origin: value.Span}
	case ast.EnumRefKind:
		return v.validateUnannotatedEnumRef(value, k)
	default:
		// AliasKind and TypeDefKind never survive materialization and
		// template stripping respectively; reaching one here is an
		// internal bug, not a user-facing fault, so degrade rather than
		// panic.
		v.errorf(KindUnknownType, value.Span, "internal: unmaterialized node reached validation")
		return ResolvedValue{Kind: ResolvedNull, Origin: value.Span}
	}
}

// validateAgainstType checks value against t. A value whose resolution
// already failed (PoisonedKind) is passed through as a bare null without
// raising a second diagnostic on top of whatever the Resolver already
// reported for it, since per-field validation has no other way to tell
// an already-broken value apart from one that's merely the wrong type.
func (v *validator) validateAgainstType(value ast.Value, t ast.TypeExpr) ResolvedValue {
	if _, poisoned := value.Kind.(ast.PoisonedKind); poisoned {
		return ResolvedValue{Kind: ResolvedNull, Origin: value.Span}
	}
	switch ty := t.(type) {
	case ast.PrimitiveType:
		return v.validatePrimitive(value, ty.Kind)
	case ast.NamedType:
		entry, ok := v.types.lookupLocal(ty.Name)
		if !ok {
			v.errorf(KindUnknownType, value.Span, "unknown type %q", ty.Name)
			return v.validateValue(value, nil)
		}
		return v.validateEntry(value, entry)
	case ast.NamespacedType:
		entry, ok := v.types.lookupNamespaced(ty.Namespace, ty.Name)
		if !ok {
			v.errorf(KindUnknownType, value.Span, "unknown type %q.%q", ty.Namespace, ty.Name)
			return v.validateValue(value, nil)
		}
		return v.validateEntry(value, entry)
	case ast.CollectionType:
		return v.validateCollection(value, ty)
	default:
		return v.validateValue(value, nil)
	}
}

func (v *validator) validateEntry(value ast.Value, entry typeEntry) ResolvedValue {
	if entry.isEnum {
		return v.validateEnumValue(value, entry.enumDecl)
	}
	return v.validateStruct(value, entry.structDecl)
}

func primitiveName(kind ast.PrimitiveKind) string {
	switch kind {
	case ast.PrimString:
		return "string"
	case ast.PrimNumber:
		return "number"
	case ast.PrimBoolean:
		return "boolean"
	case ast.PrimNull:
		return "null"
	case ast.PrimObject:
		return "object"
	case ast.PrimArray:
		return "array"
	default:
		return "any"
	}
}

func describeValueKind(k ast.ValueKind) string {
	switch k.(type) {
	case ast.ObjectKind:
		return "object"
	case ast.ArrayKind:
		return "array"
	case ast.StringKind:
		return "string"
	case ast.NumberKind:
		return "number"
	case ast.BoolKind:
		return "boolean"
	case ast.NullKind:
		return "null"
	case ast.EnumRefKind:
		return "enum reference"
	default:
		return "value"
	}
}

func (v *validator) validatePrimitive(value ast.Value, kind ast.PrimitiveKind) ResolvedValue {
	switch kind {
	case ast.PrimAny:
		return v.validateValue(value, nil)
	case ast.PrimString:
		if s, ok := value.Kind.(ast.StringKind); ok {
			return ResolvedValue{Kind: ResolvedString, Str: s.Value, Origin: value.Span}
		}
	case ast.PrimNumber:
		if n, ok := value.Kind.(ast.NumberKind); ok {
			return ResolvedValue{Kind: ResolvedNumber, Num: n.Value, NumLit: n.Literal, Origin: value.Span}
		}
	case ast.PrimBoolean:
		if b, ok := value.Kind.(ast.BoolKind); ok {
			return ResolvedValue{Kind: ResolvedBool, Bool: b.Value, Origin: value.Span}
		}
	case ast.PrimNull:
		if _, ok := value.Kind.(ast.NullKind); ok {
			return ResolvedValue{Kind: ResolvedNull, Origin: value.Span}
		}
	case ast.PrimObject:
		if _, ok := value.Kind.(ast.ObjectKind); ok {
			return v.validateObject(value)
		}
	case ast.PrimArray:
		if arr, ok := value.Kind.(ast.ArrayKind); ok {
			elems := make([]ResolvedValue, len(arr.Elements))
			for i, el := range arr.Elements {
				elems[i] = v.validateValue(el, nil)
			}
			return ResolvedValue{Kind: ResolvedArray, Elements: elems, Origin: value.Span}
		}
	}
	v.errorf(KindTypeMismatch, value.Span, "expected %s, found %s", primitiveName(kind), describeValueKind(value.Kind))
	return ResolvedValue{Origin: value.Span}
}

// validateStruct checks value against decl field by field, in
// declaration order. Defaults for absent fields are injected only once
// every present field has validated without error, so a malformed
// document never silently gets a default papered over a real mistake.
func (v *validator) validateStruct(value ast.Value, decl ast.StructDecl) ResolvedValue {
	if _, ok := value.Kind.(ast.ObjectKind); !ok {
		v.errorf(KindTypeMismatch, value.Span, "expected struct, found %s", describeValueKind(value.Kind))
		return ResolvedValue{Kind: ResolvedObject, Origin: value.Span}
	}
	present := flattenObject(value)
	declared := map[string]bool{}

	before := len(v.diags)

	var fields []ResolvedField
	for _, f := range decl.Fields {
		declared[f.Name] = true
		item, ok := present.get(f.Name)
		if !ok {
			continue
		}
		fields = append(fields, ResolvedField{Key: f.Name, Value: v.validateAgainstType(item.value, f.Type)})
	}

	for _, item := range present.items {
		if !declared[item.key] {
			v.errorf(KindUnexpectedField, item.value.Span, "unexpected field %q", item.key)
		}
	}

	for _, f := range decl.Fields {
		if _, ok := present.get(f.Name); ok {
			continue
		}
		if f.Default == nil {
			v.errorf(KindMissingField, value.Span, "missing required field %q", f.Name)
		}
	}

	if len(v.diags) == before {
		for _, f := range decl.Fields {
			if _, ok := present.get(f.Name); ok {
				continue
			}
			if f.Default == nil {
				continue
			}
			fields = append(fields, ResolvedField{Key: f.Name, Value: v.validateAgainstType(*f.Default, f.Type)})
		}
	}

	return ResolvedValue{Kind: ResolvedObject, Fields: fields, Origin: value.Span}
}

func (v *validator) validateEnumValue(value ast.Value, decl ast.EnumDecl) ResolvedValue {
	ref, ok := value.Kind.(ast.EnumRefKind)
	if !ok {
		v.errorf(KindTypeMismatch, value.Span, "expected enum reference, found %s", describeValueKind(value.Kind))
		return ResolvedValue{Origin: value.Span}
	}
	return v.resolveEnumVariant(value.Span, ref, decl)
}

func (v *validator) resolveEnumVariant(span ast.Span, ref ast.EnumRefKind, decl ast.EnumDecl) ResolvedValue {
	for _, variant := range decl.Variants {
		if variant == ref.Variant {
			return ResolvedValue{Kind: ResolvedString, Str: variant, Origin: span}
		}
	}
	v.errorf(KindEnumVariantUnknown, span, "unknown variant %q for enum %q", ref.Variant, ref.EnumName)
	return ResolvedValue{Kind: ResolvedString, Str: ref.Variant, Origin: span}
}

// validateUnannotatedEnumRef resolves a "$Name.Variant" appearing
// without a "::" annotation: the registry still has to confirm the
// enum and the variant both exist, it's just not cross-checking against
// a declared field type.
func (v *validator) validateUnannotatedEnumRef(value ast.Value, ref ast.EnumRefKind) ResolvedValue {
	var entry typeEntry
	var ok bool
	if ref.Namespace != "" {
		entry, ok = v.types.lookupNamespaced(ref.Namespace, ref.EnumName)
	} else {
		entry, ok = v.types.lookupLocal(ref.EnumName)
	}
	if !ok || !entry.isEnum {
		v.errorf(KindUnknownType, value.Span, "unknown enum %q", ref.EnumName)
		return ResolvedValue{Kind: ResolvedString, Str: ref.Variant, Origin: value.Span}
	}
	return v.resolveEnumVariant(value.Span, ref, entry.enumDecl)
}

// validateCollection matches value's elements against a "[T1, T2...]"
// style pattern: a fixed prefix, an optional variadic middle absorbing
// whatever elements the fixed prefix/suffix didn't claim, and a fixed
// suffix.
func (v *validator) validateCollection(value ast.Value, ty ast.CollectionType) ResolvedValue {
	prefix, variadic, suffix, ok := splitCollectionPattern(ty)
	if !ok {
		v.errorf(KindInvalidCollectionPattern, value.Span, "collection pattern has more than one variadic element")
		return ResolvedValue{Kind: ResolvedArray, Origin: value.Span}
	}
	arr, isArr := value.Kind.(ast.ArrayKind)
	if !isArr {
		v.errorf(KindTypeMismatch, value.Span, "expected array, found %s", describeValueKind(value.Kind))
		return ResolvedValue{Kind: ResolvedArray, Origin: value.Span}
	}

	elems := arr.Elements
	minLen := len(prefix) + len(suffix)
	if len(elems) < minLen {
		v.errorf(KindTypeMismatch, value.Span, "expected at least %d elements, found %d", minLen, len(elems))
		return ResolvedValue{Kind: ResolvedArray, Origin: value.Span}
	}
	if variadic == nil && len(elems) != minLen {
		v.errorf(KindTypeMismatch, value.Span, "expected exactly %d elements, found %d", minLen, len(elems))
		return ResolvedValue{Kind: ResolvedArray, Origin: value.Span}
	}

	var out []ResolvedValue
	idx := 0
	for _, t := range prefix {
		out = append(out, v.validateAgainstType(elems[idx], t))
		idx++
	}
	if variadic != nil {
		for idx < len(elems)-len(suffix) {
			out = append(out, v.validateAgainstType(elems[idx], *variadic))
			idx++
		}
	}
	for _, t := range suffix {
		out = append(out, v.validateAgainstType(elems[idx], t))
		idx++
	}
	return ResolvedValue{Kind: ResolvedArray, Elements: out, Origin: value.Span}
}
