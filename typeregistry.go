package mon

import "github.com/mycelmon/mon/pkg/ast"

// typeEntry is one registered #struct or #enum declaration.
type typeEntry struct {
	isEnum     bool
	structDecl ast.StructDecl
	enumDecl   ast.EnumDecl
}

// TypeRegistry is a document's scope chain of struct/enum declarations:
// its own plus whatever it imported, keyed flat for unqualified lookups
// and by namespace for "ns.Type" lookups.
type TypeRegistry struct {
	local      map[string]typeEntry
	namespaces map[string]*TypeRegistry
}

func newTypeRegistry() *TypeRegistry {
	return &TypeRegistry{local: map[string]typeEntry{}, namespaces: map[string]*TypeRegistry{}}
}

func (t *TypeRegistry) lookupLocal(name string) (typeEntry, bool) {
	e, ok := t.local[name]
	return e, ok
}

func (t *TypeRegistry) lookupNamespaced(ns, name string) (typeEntry, bool) {
	sub, ok := t.namespaces[ns]
	if !ok {
		return typeEntry{}, false
	}
	return sub.lookupLocal(name)
}

// registerTypes walks root collecting every "#struct"/"#enum"-valued
// pair into a flat registry, seeded with whatever types were lifted by
// name from an import. A local declaration reusing an imported name
// wins but emits ShadowedImport; two local declarations sharing a name
// is an error, since shadowing is only tolerated against an import.
func registerTypes(root *ast.Value, scope *importScope) (*TypeRegistry, Diagnostics) {
	reg := newTypeRegistry()
	reg.namespaces = scope.namespaceTypes

	imported := map[string]bool{}
	for name, entry := range scope.liftedTypes {
		reg.local[name] = entry
		imported[name] = true
	}

	var diags Diagnostics
	declaredAt := map[string]ast.Span{}

	var walkValue func(v ast.Value)
	walkMembers := func(members []ast.Member) {
		for _, mem := range members {
			pair, ok := mem.(ast.Pair)
			if !ok {
				continue
			}
			if td, isType := pair.Value.Kind.(ast.TypeDefKind); isType {
				if prior, dup := declaredAt[pair.Key]; dup {
					diags = append(diags, newDiagnostic(
						KindDuplicateType, pair.Span, "duplicate type declaration %q", pair.Key,
					).withRelated(prior))
				} else {
					declaredAt[pair.Key] = pair.Span
					if imported[pair.Key] {
						diags = append(diags, newDiagnostic(KindShadowedImport, pair.Span, "local type %q shadows an imported name", pair.Key))
					}
					switch decl := td.Decl.(type) {
					case ast.StructDecl:
						reg.local[pair.Key] = typeEntry{structDecl: decl}
					case ast.EnumDecl:
						reg.local[pair.Key] = typeEntry{isEnum: true, enumDecl: decl}
					}
				}
				continue
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

	return reg, diags
}
