package mon

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mycelmon/mon/pkg/ast"
)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSourceProvider sets where import bytes come from. Without one, any
// import statement fails with ImportNotFound.
func WithSourceProvider(p SourceProvider) ResolverOption {
	return func(r *Resolver) { r.provider = p }
}

// WithCache backs the resolver's canonical-path document cache with a
// bounded LRU instead of the default unbounded map, for embedders that
// keep a Resolver alive across many analyze calls against a large import
// graph.
func WithCache(size int) ResolverOption {
	return func(r *Resolver) {
		c, err := lru.New[string, *resolvedImport](size)
		if err != nil {
			// Only returns an error for size <= 0; a programmer error in
			// the caller, not something to recover from at runtime.
			panic(errors.Wrap(err, "mon: invalid cache size"))
		}
		r.cache = &lruImportCache{c: c}
	}
}

// Resolver builds the import graph for a document and materializes every
// anchor, alias, and spread it and its transitive imports contain.
type Resolver struct {
	provider SourceProvider
	parser   *Parser
	cache    importCache
}

// NewResolver creates a Resolver. Without WithSourceProvider, import
// statements always fail with ImportNotFound — useful for analyzing a
// single self-contained document.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{parser: NewParser(), cache: &mapImportCache{m: map[string]*resolvedImport{}}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type importCache interface {
	get(path string) (*resolvedImport, bool)
	put(path string, v *resolvedImport)
}

type mapImportCache struct{ m map[string]*resolvedImport }

func (c *mapImportCache) get(p string) (*resolvedImport, bool) { v, ok := c.m[p]; return v, ok }
func (c *mapImportCache) put(p string, v *resolvedImport)      { c.m[p] = v }

type lruImportCache struct{ c *lru.Cache[string, *resolvedImport] }

func (c *lruImportCache) get(p string) (*resolvedImport, bool) { return c.c.Get(p) }
func (c *lruImportCache) put(p string, v *resolvedImport)      { c.c.Add(p, v) }

// resolvedImport is everything a second document importing this one
// might need: its fully resolved output (for "import { X }" value
// lifting), its anchor table (for "import { &A }"),
// and its type registry (for namespaced type expressions).
type resolvedImport struct {
	resolved ResolvedDocument
	anchors  map[string]ResolvedValue
	types    *TypeRegistry
}

// importScope is what a single document's materialization/validation
// passes see of its imports. Namespace imports only ever feed type
// lookups ("ns.Type" in a "::" annotation); pulling a plain data value
// across a file boundary always goes through a named import instead, so
// nothing here needs to keep the whole imported resolvedImport around.
type importScope struct {
	liftedValues   map[string]ResolvedValue
	liftedAnchors  map[string]ast.Value
	liftedTypes    map[string]typeEntry
	namespaceTypes map[string]*TypeRegistry
}

func newImportScope() *importScope {
	return &importScope{
		liftedValues:   map[string]ResolvedValue{},
		liftedAnchors:  map[string]ast.Value{},
		liftedTypes:    map[string]typeEntry{},
		namespaceTypes: map[string]*TypeRegistry{},
	}
}

// Resolve runs the full pipeline (parse is assumed already done by the
// caller for the root document via Analyze) over doc, returning a
// ResolvedDocument plus every diagnostic collected along the way.
func (r *Resolver) Resolve(doc *ast.Document, sourceID string) (ResolvedDocument, Diagnostics) {
	stack := map[string]bool{sourceID: true}
	res, diags := r.resolveParsed(doc, sourceID, stack)
	return res.resolved, diags
}

// resolveFile loads, parses, and resolves the document at canonical path
// p, consulting and populating the cache. stack is the DFS gray-set used
// for import-cycle detection.
func (r *Resolver) resolveFile(p string, importSpan ast.Span, stack map[string]bool) (*resolvedImport, Diagnostics) {
	if cached, ok := r.cache.get(p); ok {
		return cached, nil
	}
	if stack[p] {
		return &resolvedImport{types: newTypeRegistry()}, Diagnostics{
			newDiagnostic(KindCircularDependency, importSpan, "import cycle detected at %q", p),
		}
	}
	if r.provider == nil {
		return &resolvedImport{types: newTypeRegistry()}, Diagnostics{
			newDiagnostic(KindImportNotFound, importSpan, "no source provider configured, cannot load %q", p),
		}
	}

	src, err := r.provider.Read(p)
	if err != nil {
		return &resolvedImport{types: newTypeRegistry()}, Diagnostics{
			newDiagnostic(KindImportNotFound, importSpan, "cannot read %q: %s", p, err),
		}
	}

	log.Debug().Str("path", p).Msg("resolving import")
	doc, parseDiags := r.parser.Parse(src, p)

	stack[p] = true
	res, diags := r.resolveParsed(doc, p, stack)
	delete(stack, p)

	diags = append(append(Diagnostics{}, parseDiags...), diags...)
	r.cache.put(p, res)
	return res, diags
}

// resolveParsed runs every stage of the pipeline (import resolution,
// anchor hoisting, alias/spread materialization, type registration,
// validation with default injection, and template stripping) over an
// already-parsed document, in the order materialization must happen.
func (r *Resolver) resolveParsed(doc *ast.Document, sourceID string, stack map[string]bool) (*resolvedImport, Diagnostics) {
	var diags Diagnostics
	scope := newImportScope()

	for _, stmt := range doc.Imports {
		canon, err := r.canonicalize(dirOf(sourceID), stmt.ImportPath())
		if err != nil {
			diags = append(diags, newDiagnostic(KindImportNotFound, stmt.ImportSpan(), "cannot resolve import path %q: %s", stmt.ImportPath(), err))
			continue
		}
		sub, subDiags := r.resolveFile(canon, stmt.ImportSpan(), stack)
		diags = append(diags, subDiags...)

		switch imp := stmt.(type) {
		case ast.NamespaceImport:
			scope.namespaceTypes[imp.AsName] = sub.types
		case ast.NamedImport:
			for _, spec := range imp.Specs {
				if spec.IsAnchor {
					anchorVal, ok := sub.anchors[spec.Name]
					if !ok {
						diags = append(diags, newDiagnostic(KindImportMemberNotFound, imp.Span, "anchor %q not found in %q", spec.Name, imp.Path))
						continue
					}
					scope.liftedAnchors[spec.Name] = resolvedToLiteralAST(anchorVal)
				} else if entry, ok := sub.types.lookupLocal(spec.Name); ok {
					// A named import can lift a "#struct"/"#enum" decl
					// just as easily as a plain data field: both are
					// ordinary root-level pairs in the exporting document,
					// they just land in the type registry instead of the
					// resolved tree.
					scope.liftedTypes[spec.Name] = entry
				} else {
					val, ok := sub.resolved.Root.field(spec.Name)
					if !ok {
						diags = append(diags, newDiagnostic(KindImportMemberNotFound, imp.Span, "member %q not found in %q", spec.Name, imp.Path))
						continue
					}
					scope.liftedValues[spec.Name] = val
				}
			}
		}
	}

	anchors, anchorDiags := hoistAnchors(doc.Root, sourceID)
	diags = append(diags, anchorDiags...)
	for name, v := range scope.liftedAnchors {
		if _, exists := anchors[name]; !exists {
			anchors[name] = v
		}
	}

	mat := &materializer{raw: anchors, resolved: map[string]ast.Value{}, resolving: map[string]bool{}}
	*doc.Root = mat.value(*doc.Root)
	diags = append(diags, mat.diags...)

	// Type registration reads StructField.Default straight out of the
	// tree, so it must run after materialization or an alias/spread
	// buried in a default value would reach the validator unresolved.
	types, typeDiags := registerTypes(doc.Root, scope)
	diags = append(diags, typeDiags...)

	val := &validator{types: types, scope: scope}
	root := val.validateObject(*doc.Root)
	diags = append(diags, val.diags...)

	for name, v := range scope.liftedValues {
		if _, exists := root.field(name); !exists {
			root = root.withField(name, v)
		}
	}

	return &resolvedImport{
		resolved: ResolvedDocument{Root: root, Source: sourceID},
		anchors:  collectResolvedAnchors(anchors, mat, val),
		types:    types,
	}, diags
}

// collectResolvedAnchors re-validates each hoisted anchor independently
// so a document importing one of this document's anchors sees the same
// fully materialized, fully validated shape a local alias would produce.
func collectResolvedAnchors(anchors map[string]ast.Value, mat *materializer, val *validator) map[string]ResolvedValue {
	out := make(map[string]ResolvedValue, len(anchors))
	for name, v := range anchors {
		out[name] = val.validateValue(mat.resolveAnchor(name, v.Span), nil)
	}
	return out
}

func (r *Resolver) canonicalize(base, rel string) (string, error) {
	if r.provider == nil {
		return "", errors.New("no source provider configured")
	}
	return r.provider.Canonicalize(base, rel)
}

// dirOf returns the directory portion of a canonical path using forward
// slashes, the convention every SourceProvider in this package uses.
func dirOf(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}
