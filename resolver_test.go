package mon

import "testing"

type resolverTester struct {
	provider      MapSourceProvider
	entry         string
	wantErrors    bool
	wantDiagCount *int
	check         func(t *testing.T, name string, root ResolvedValue)
}

func (t *resolverTester) runTest(test *testing.T, name string) {
	src, ok := t.provider[t.entry]
	if !ok {
		test.Fatalf("[%s] no source registered for entry %q", name, t.entry)
	}
	doc, parseDiags := NewParser().Parse([]byte(src), t.entry)
	r := NewResolver(WithSourceProvider(t.provider))
	resolved, diags := r.Resolve(doc, t.entry)
	all := append(append(Diagnostics{}, parseDiags...), diags...)
	if got := all.HasErrors(); got != t.wantErrors {
		test.Fatalf("[%s] HasErrors() = %v, want %v (diags: %v)", name, got, t.wantErrors, all)
	}
	if t.wantDiagCount != nil && len(all) != *t.wantDiagCount {
		test.Fatalf("[%s] got %d diagnostics, want %d (diags: %v)", name, len(all), *t.wantDiagCount, all)
	}
	if t.check != nil {
		t.check(test, name, resolved.Root)
	}
}

func diagCount(n int) *int { return &n }

var resolverTests = map[string]*resolverTester{
	"alias deep copy independence": {
		provider: MapSourceProvider{
			"main.mon": `{ &base: { count: 1 }, a: *base, b: *base }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			a, _ := root.field("a")
			b, _ := root.field("b")
			aCount, _ := a.field("count")
			bCount, _ := b.field("count")
			if aCount.Num != 1 || bCount.Num != 1 {
				t.Fatalf("[%s] expected both copies to see count=1, got a=%v b=%v", name, aCount.Num, bCount.Num)
			}
			a.Fields[0].Value.Num = 99
			if bAfter, _ := b.field("count"); bAfter.Num != 1 {
				t.Fatalf("[%s] expected mutating a's copy to leave b.count at 1, got %v", name, bAfter.Num)
			}
		},
	},
	"forward reference to anchor declared later": {
		provider: MapSourceProvider{
			"main.mon": `{ early: *later, &later: { v: 42 } }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			early, ok := root.field("early")
			if !ok {
				t.Fatalf("[%s] expected field 'early'", name)
			}
			v, ok := early.field("v")
			if !ok || v.Num != 42 {
				t.Fatalf("[%s] expected early.v == 42, got %+v", name, early)
			}
		},
	},
	"unknown alias reports diagnostic": {
		provider: MapSourceProvider{
			"main.mon": `{ a: *missing }`,
		},
		entry:      "main.mon",
		wantErrors: true,
	},
	"unknown alias under a type annotation reports exactly one diagnostic": {
		provider: MapSourceProvider{
			"main.mon": `{
				Config: #struct { x(Number) },
				a :: Config = *missing,
			}`,
		},
		entry:         "main.mon",
		wantErrors:    true,
		wantDiagCount: diagCount(1),
		check: func(t *testing.T, name string, root ResolvedValue) {
			a, ok := root.field("a")
			if !ok {
				t.Fatalf("[%s] expected field 'a'", name)
			}
			if a.Kind != ResolvedNull {
				t.Fatalf("[%s] expected 'a' to resolve to null once poisoned, got %+v", name, a)
			}
		},
	},
	"object spread local override wins": {
		provider: MapSourceProvider{
			"main.mon": `{ &h: { theme: "dark", size: 1 }, settings: { ...*h, theme: "light" } }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			settings, _ := root.field("settings")
			theme, _ := settings.field("theme")
			if theme.Str != "light" {
				t.Fatalf("[%s] expected local override to win, got %q", name, theme.Str)
			}
			if len(settings.Fields) != 2 {
				t.Fatalf("[%s] expected 2 fields (theme, size), got %d: %+v", name, len(settings.Fields), settings.Fields)
			}
		},
	},
	"array spread concatenation order": {
		provider: MapSourceProvider{
			"main.mon": `{ &nums: [1, 2], all: [0, ...*nums, 3] }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			all, _ := root.field("all")
			if len(all.Elements) != 4 {
				t.Fatalf("[%s] expected 4 elements, got %d", name, len(all.Elements))
			}
			got := []float64{all.Elements[0].Num, all.Elements[1].Num, all.Elements[2].Num, all.Elements[3].Num}
			want := []float64{0, 1, 2, 3}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("[%s] expected order %v, got %v", name, want, got)
				}
			}
		},
	},
	"anchors and type declarations are stripped": {
		provider: MapSourceProvider{
			"main.mon": `{ &base: { x: 1 }, Size: #struct { w(Number) }, used: *base }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			if _, ok := root.field("base"); ok {
				t.Fatalf("[%s] expected anchor-declared pair 'base' to be stripped", name)
			}
			if _, ok := root.field("Size"); ok {
				t.Fatalf("[%s] expected type declaration 'Size' to be stripped", name)
			}
			if _, ok := root.field("used"); !ok {
				t.Fatalf("[%s] expected plain data field 'used' to survive", name)
			}
		},
	},
	"named import of a value": {
		provider: MapSourceProvider{
			"theme.mon": `{ accent: "blue" }`,
			"main.mon":  `import { accent } from "theme.mon"
{ ui: accent }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			ui, ok := root.field("ui")
			if !ok || ui.Str != "blue" {
				t.Fatalf("[%s] expected ui == %q, got %+v", name, "blue", ui)
			}
		},
	},
	"named import of an anchor": {
		provider: MapSourceProvider{
			"theme.mon": `{ &Palette: { accent: "blue" } }`,
			"main.mon": `import { &Palette } from "theme.mon"
{ ui: *Palette }`,
		},
		entry: "main.mon",
		check: func(t *testing.T, name string, root ResolvedValue) {
			ui, ok := root.field("ui")
			if !ok {
				t.Fatalf("[%s] expected field 'ui'", name)
			}
			accent, ok := ui.field("accent")
			if !ok || accent.Str != "blue" {
				t.Fatalf("[%s] expected ui.accent == %q, got %+v", name, "blue", ui)
			}
		},
	},
	"missing import member reports diagnostic": {
		provider: MapSourceProvider{
			"theme.mon": `{ accent: "blue" }`,
			"main.mon": `import { missing } from "theme.mon"
{}`,
		},
		entry:      "main.mon",
		wantErrors: true,
	},
	"import cycle detected": {
		provider: MapSourceProvider{
			"a.mon": `import { x } from "b.mon"
{ y: 1 }`,
			"b.mon": `import { y } from "a.mon"
{ x: 1 }`,
		},
		entry:      "a.mon",
		wantErrors: true,
	},
	"import of an unregistered file fails": {
		provider: MapSourceProvider{
			"main.mon": `import { x } from "other.mon"
{}`,
		},
		entry:      "main.mon",
		wantErrors: true,
	},
}

func TestResolver(t *testing.T) {
	for name, cfg := range resolverTests {
		cfg.runTest(t, name)
	}
}

func TestResolverMissingProviderFailsGracefully(t *testing.T) {
	doc, _ := NewParser().Parse([]byte(`import { x } from "other.mon"
{}`), "main.mon")
	r := NewResolver()
	_, diags := r.Resolve(doc, "main.mon")
	if !diags.HasErrors() {
		t.Fatalf("expected an error diagnostic when no SourceProvider is configured")
	}
}
