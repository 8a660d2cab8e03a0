// Package mon implements Mycel Object Notation: a JSON superset with
// unquoted keys, comments, trailing commas, anchors/aliases, spreads,
// file imports, and an optional structural type system. Analyze is the
// package's composition root, wiring the Lexer, Parser, and Resolver
// together the way an embedder would; loading documents from a real
// filesystem, rendering diagnostics to a terminal, and exposing any of
// this over an LSP or a CLI are all left to callers.
package mon

// AnalyzeOption configures a single Analyze call.
type AnalyzeOption func(*analyzeConfig)

type analyzeConfig struct {
	provider       SourceProvider
	cacheSize      int
	maxDiagnostics int
}

// WithImports gives Analyze a SourceProvider to resolve "import ..."
// statements against. Without one, any import fails with
// ImportNotFound but the rest of the document still resolves.
func WithImports(p SourceProvider) AnalyzeOption {
	return func(c *analyzeConfig) { c.provider = p }
}

// WithImportCacheSize bounds the resolver's cross-file document cache
// to an LRU of the given size instead of an unbounded map.
func WithImportCacheSize(n int) AnalyzeOption {
	return func(c *analyzeConfig) { c.cacheSize = n }
}

// WithAnalyzeMaxDiagnostics caps how many diagnostics the parser stage
// will record for the root document.
func WithAnalyzeMaxDiagnostics(n int) AnalyzeOption {
	return func(c *analyzeConfig) { c.maxDiagnostics = n }
}

// Analyze runs the full pipeline over text: lex, parse, resolve
// imports, materialize anchors/aliases/spreads, validate against any
// "::" annotations, and strip templates down to a canonical
// ResolvedDocument. originPath identifies text for diagnostics and as
// the base other imports in text are resolved relative to; it need not
// exist anywhere a SourceProvider can read it.
//
// Analyze never fails outright: it always returns a non-nil
// *ResolvedDocument, accumulating every problem found along the way as
// a Diagnostic instead. Check Diagnostics.HasErrors to decide whether
// the result is trustworthy.
func Analyze(text []byte, originPath string, opts ...AnalyzeOption) (*ResolvedDocument, Diagnostics) {
	cfg := analyzeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var parserOpts []ParserOption
	if cfg.maxDiagnostics > 0 {
		parserOpts = append(parserOpts, WithMaxDiagnostics(cfg.maxDiagnostics))
	}
	parser := NewParser(parserOpts...)
	doc, diags := parser.Parse(text, originPath)

	var resolverOpts []ResolverOption
	if cfg.provider != nil {
		resolverOpts = append(resolverOpts, WithSourceProvider(cfg.provider))
	}
	if cfg.cacheSize > 0 {
		resolverOpts = append(resolverOpts, WithCache(cfg.cacheSize))
	}
	resolver := NewResolver(resolverOpts...)

	resolved, resolveDiags := resolver.Resolve(doc, originPath)
	diags = append(diags, resolveDiags...)

	return &resolved, diags
}

// ToJSON renders d's root as canonical JSON using the default
// (compact) Serializer.
func (d *ResolvedDocument) ToJSON() (string, error) {
	return NewSerializer().Serialize(d.Root)
}

// ToIndentedJSON renders d's root as JSON indented with indent per
// nesting level.
func (d *ResolvedDocument) ToIndentedJSON(indent string) (string, error) {
	return NewSerializer(WithIndent(indent)).Serialize(d.Root)
}
