package mon

import "testing"

type analyzeTester struct {
	provider   MapSourceProvider
	entry      string
	src        string
	wantErrors bool
	wantKind   Kind
	check      func(t *testing.T, name string, root ResolvedValue)
}

func (t *analyzeTester) runTest(test *testing.T, name string) {
	var doc *ResolvedDocument
	var diags Diagnostics
	if t.provider != nil {
		doc, diags = Analyze([]byte(t.provider[t.entry]), t.entry, WithImports(t.provider))
	} else {
		doc, diags = Analyze([]byte(t.src), "main.mon")
	}
	if got := diags.HasErrors(); got != t.wantErrors {
		test.Fatalf("[%s] HasErrors() = %v, want %v (diags: %v)", name, got, t.wantErrors, diags)
	}
	if t.wantKind != "" {
		found := false
		for _, d := range diags {
			if d.Kind == t.wantKind {
				found = true
				break
			}
		}
		if !found {
			test.Fatalf("[%s] expected a %s diagnostic, got %v", name, t.wantKind, diags)
		}
	}
	if t.check != nil {
		t.check(test, name, doc.Root)
	}
}

var validatorTests = map[string]*analyzeTester{
	"struct validates and keeps declared fields": {
		src: `{
			Size: #struct { width(Number), height(Number) },
			box :: Size = { width: 10, height: 20 }
		}`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			box, ok := root.field("box")
			if !ok {
				t.Fatalf("[%s] expected field 'box'", name)
			}
			w, _ := box.field("width")
			if w.Num != 10 {
				t.Fatalf("[%s] expected width == 10, got %v", name, w.Num)
			}
		},
	},
	"struct injects default for absent field": {
		src: `{
			Size: #struct { width(Number), height(Number) = 5 },
			box :: Size = { width: 10 }
		}`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			box, _ := root.field("box")
			h, ok := box.field("height")
			if !ok || h.Num != 5 {
				t.Fatalf("[%s] expected injected default height == 5, got %+v", name, box)
			}
		},
	},
	"struct missing required field reports diagnostic": {
		src: `{
			Size: #struct { width(Number), height(Number) },
			box :: Size = { width: 10 }
		}`,
		wantErrors: true,
		wantKind:   KindMissingField,
	},
	"struct unexpected field reports diagnostic": {
		src: `{
			Size: #struct { width(Number) },
			box :: Size = { width: 10, depth: 3 }
		}`,
		wantErrors: true,
		wantKind:   KindUnexpectedField,
	},
	"struct default not injected when a present field fails": {
		src: `{
			Size: #struct { width(Number), height(Number) = 5 },
			box :: Size = { width: "not a number" }
		}`,
		wantErrors: true,
		check: func(t *testing.T, name string, root ResolvedValue) {
			box, _ := root.field("box")
			if _, ok := box.field("height"); ok {
				t.Fatalf("[%s] expected default to be withheld after a field error, got %+v", name, box)
			}
		},
	},
	"enum validates known variant": {
		src: `{
			Color: #enum { Red, Green, Blue },
			c :: Color = $Color.Green
		}`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			c, ok := root.field("c")
			if !ok || c.Str != "Green" {
				t.Fatalf("[%s] expected c == %q, got %+v", name, "Green", c)
			}
		},
	},
	"enum rejects unknown variant": {
		src: `{
			Color: #enum { Red, Green, Blue },
			c :: Color = $Color.Purple
		}`,
		wantErrors: true,
		wantKind:   KindEnumVariantUnknown,
	},
	"unannotated enum ref still validated": {
		src: `{
			Color: #enum { Red, Green },
			c: $Color.Red
		}`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			c, ok := root.field("c")
			if !ok || c.Str != "Red" {
				t.Fatalf("[%s] expected c == %q, got %+v", name, "Red", c)
			}
		},
	},
	"unknown type reports diagnostic": {
		src: `{ a :: NotARealType = 1 }`,
		wantErrors: true,
		wantKind:   KindUnknownType,
	},
	"fixed collection pattern length mismatch": {
		src:        `{ p :: [Number, Number] = [1, 2, 3] }`,
		wantErrors: true,
		wantKind:   KindTypeMismatch,
	},
	"variadic collection pattern accepts any length": {
		src: `{ p :: [Number...] = [1, 2, 3, 4] }`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			p, _ := root.field("p")
			if len(p.Elements) != 4 {
				t.Fatalf("[%s] expected 4 elements, got %d", name, len(p.Elements))
			}
		},
	},
	"variadic collection pattern accepts empty": {
		src: `{ p :: [Number...] = [] }`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			p, _ := root.field("p")
			if len(p.Elements) != 0 {
				t.Fatalf("[%s] expected 0 elements, got %d", name, len(p.Elements))
			}
		},
	},
	"prefix plus variadic plus suffix": {
		src: `{ p :: [String, Number..., Boolean] = ["x", 1, 2, 3, true] }`,
		check: func(t *testing.T, name string, root ResolvedValue) {
			p, _ := root.field("p")
			if len(p.Elements) != 5 {
				t.Fatalf("[%s] expected 5 elements, got %d", name, len(p.Elements))
			}
			if p.Elements[0].Str != "x" || p.Elements[4].Bool != true {
				t.Fatalf("[%s] unexpected elements %+v", name, p.Elements)
			}
		},
	},
	"named import of a struct type": {
		provider: MapSourceProvider{
			"types.mon": `{ Size: #struct { width(Number) } }`,
			"main.mon": `import { Size } from "types.mon"
{ box :: Size = { width: 10 } }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			box, ok := root.field("box")
			if !ok {
				t.Fatalf("[%s] expected field 'box'", name)
			}
			w, _ := box.field("width")
			if w.Num != 10 {
				t.Fatalf("[%s] expected width == 10, got %v", name, w.Num)
			}
		},
	},
	"local type shadows imported name with warning": {
		provider: MapSourceProvider{
			"types.mon": `{ Size: #struct { width(Number) } }`,
			"main.mon": `import { Size } from "types.mon"
{ Size: #struct { height(Number) }, box :: Size = { height: 4 } }`,
		},
		entry:    "main.mon",
		wantKind: KindShadowedImport,
		check: func(t *testing.T, name string, root ResolvedValue) {
			box, _ := root.field("box")
			if _, ok := box.field("height"); !ok {
				t.Fatalf("[%s] expected local struct definition to win, got %+v", name, box)
			}
		},
	},
	"duplicate local type declaration is an error": {
		src: `{
			A: #struct { x(Number) },
			A: #struct { y(Number) }
		}`,
		wantErrors: true,
		wantKind:   KindDuplicateType,
	},
}

func TestValidator(t *testing.T) {
	for name, cfg := range validatorTests {
		cfg.runTest(t, name)
	}
}
