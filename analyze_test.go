package mon

import (
	"strings"
	"testing"
)

type analyzeEndToEndTester struct {
	provider   MapSourceProvider
	entry      string
	src        string
	opts       []AnalyzeOption
	wantErrors bool
	wantJSON   string
}

func (t *analyzeEndToEndTester) runTest(test *testing.T, name string) {
	var doc *ResolvedDocument
	var diags Diagnostics
	opts := t.opts
	if t.provider != nil {
		opts = append(opts, WithImports(t.provider))
		doc, diags = Analyze([]byte(t.provider[t.entry]), t.entry, opts...)
	} else {
		doc, diags = Analyze([]byte(t.src), "main.mon", opts...)
	}
	if got := diags.HasErrors(); got != t.wantErrors {
		test.Fatalf("[%s] HasErrors() = %v, want %v (diags: %v)", name, got, t.wantErrors, diags)
	}
	if t.wantJSON == "" {
		return
	}
	got, err := doc.ToJSON()
	if err != nil {
		test.Fatalf("[%s] ToJSON() error = %v", name, err)
	}
	if got != t.wantJSON {
		test.Fatalf("[%s] ToJSON() = %q, want %q", name, got, t.wantJSON)
	}
}

var analyzeEndToEndTests = map[string]*analyzeEndToEndTester{
	"plain object round-trips to compact JSON": {
		src:      `{ a: 1, b: "two", c: on }`,
		wantJSON: `{"a":1,"b":"two","c":true}`,
	},
	"comments and trailing commas are not part of the output": {
		src: `{
			// a note
			a: 1,
			b: 2,
		}`,
		wantJSON: `{"a":1,"b":2}`,
	},
	"anchors and aliases resolve to JSON": {
		src:      `{ &base: { n: 1 }, x: *base, y: *base }`,
		wantJSON: `{"x":{"n":1},"y":{"n":1}}`,
	},
	"struct default surfaces in JSON": {
		src: `{
			Size: #struct { w(Number), h(Number) = 9 },
			box :: Size = { w: 1 }
		}`,
		wantJSON: `{"box":{"w":1,"h":9}}`,
	},
	"struct default referencing an alias materializes before validation": {
		src: `{
			&fallback: 9,
			Size: #struct { w(Number), h(Number) = *fallback },
			box :: Size = { w: 1 }
		}`,
		wantJSON: `{"box":{"w":1,"h":9}}`,
	},
	"unresolved import still yields a usable document": {
		src:        `import { x } from "missing.mon"` + "\n" + `{ a: 1 }`,
		wantErrors: true,
		wantJSON:   `{"a":1}`,
	},
	"cross-file struct default with alias resolves": {
		provider: MapSourceProvider{
			"types.mon": `{ &fallback: 9, Size: #struct { w(Number), h(Number) = *fallback } }`,
			"main.mon": `import { Size } from "types.mon"
{ box :: Size = { w: 1 } }`,
		},
		entry:    "main.mon",
		wantJSON: `{"box":{"w":1,"h":9}}`,
	},
	"max diagnostics option caps parser diagnostics": {
		src:        `{ a: , b: , c: , d: , e: }`,
		opts:       []AnalyzeOption{WithAnalyzeMaxDiagnostics(1)},
		wantErrors: true,
	},
}

func TestAnalyzeEndToEnd(t *testing.T) {
	for name, cfg := range analyzeEndToEndTests {
		cfg.runTest(t, name)
	}
}

func TestAnalyzeToIndentedJSON(t *testing.T) {
	doc, diags := Analyze([]byte(`{ a: 1 }`), "main.mon")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	got, err := doc.ToIndentedJSON("  ")
	if err != nil {
		t.Fatalf("ToIndentedJSON() error = %v", err)
	}
	if !strings.Contains(got, "\n  \"a\": 1\n") {
		t.Fatalf("expected indented output, got %q", got)
	}
}

func TestAnalyzeNeverReturnsNilDocument(t *testing.T) {
	doc, diags := Analyze([]byte(`{ not valid`), "main.mon")
	if doc == nil {
		t.Fatalf("expected a non-nil document even on a malformed input")
	}
	if !diags.HasErrors() {
		t.Fatalf("expected at least one error diagnostic for malformed input")
	}
}

func TestAnalyzeImportCacheSizeOption(t *testing.T) {
	provider := MapSourceProvider{
		"a.mon":    `{ v: 1 }`,
		"main.mon": `import { v } from "a.mon"` + "\n" + `{ x: v }`,
	}
	doc, diags := Analyze([]byte(provider["main.mon"]), "main.mon", WithImports(provider), WithImportCacheSize(4))
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	x, ok := doc.Root.field("x")
	if !ok || x.Num != 1 {
		t.Fatalf("expected x == 1, got %+v", x)
	}
}
