package mon

import (
	"strings"
	"testing"
)

type serializerTester struct {
	value ResolvedValue
	opts  []SerializerOption
	want  string
}

func (t *serializerTester) runTest(test *testing.T, name string) {
	got, err := NewSerializer(t.opts...).Serialize(t.value)
	if err != nil {
		test.Fatalf("[%s] Serialize() error = %v", name, err)
	}
	if got != t.want {
		test.Fatalf("[%s] Serialize() = %q, want %q", name, got, t.want)
	}
}

var serializerTests = map[string]*serializerTester{
	"null": {
		value: ResolvedValue{Kind: ResolvedNull},
		want:  "null",
	},
	"bool true": {
		value: ResolvedValue{Kind: ResolvedBool, Bool: true},
		want:  "true",
	},
	"bool false": {
		value: ResolvedValue{Kind: ResolvedBool, Bool: false},
		want:  "false",
	},
	"integer literal preserved": {
		value: ResolvedValue{Kind: ResolvedNumber, Num: 3, NumLit: "3"},
		want:  "3",
	},
	"decimal literal preserved": {
		value: ResolvedValue{Kind: ResolvedNumber, Num: 3, NumLit: "3.0"},
		want:  "3.0",
	},
	"number with no literal falls back to shortest form": {
		value: ResolvedValue{Kind: ResolvedNumber, Num: 2.5},
		want:  "2.5",
	},
	"string escaping": {
		value: ResolvedValue{Kind: ResolvedString, Str: "line\n\"quoted\"\ttab"},
		want:  `"line\n\"quoted\"\ttab"`,
	},
	"control character escapes to \\u": {
		value: ResolvedValue{Kind: ResolvedString, Str: "\x01"},
		want:  `"\u0001"`,
	},
	"empty array": {
		value: ResolvedValue{Kind: ResolvedArray},
		want:  "[]",
	},
	"empty object": {
		value: ResolvedValue{Kind: ResolvedObject},
		want:  "{}",
	},
	"compact array": {
		value: ResolvedValue{Kind: ResolvedArray, Elements: []ResolvedValue{
			{Kind: ResolvedNumber, Num: 1, NumLit: "1"},
			{Kind: ResolvedNumber, Num: 2, NumLit: "2"},
		}},
		want: "[1,2]",
	},
	"compact object preserves first-occurrence order": {
		value: ResolvedValue{Kind: ResolvedObject, Fields: []ResolvedField{
			{Key: "b", Value: ResolvedValue{Kind: ResolvedNumber, Num: 1, NumLit: "1"}},
			{Key: "a", Value: ResolvedValue{Kind: ResolvedNumber, Num: 2, NumLit: "2"}},
		}},
		want: `{"b":1,"a":2}`,
	},
	"sorted keys option reorders": {
		value: ResolvedValue{Kind: ResolvedObject, Fields: []ResolvedField{
			{Key: "b", Value: ResolvedValue{Kind: ResolvedNumber, Num: 1, NumLit: "1"}},
			{Key: "a", Value: ResolvedValue{Kind: ResolvedNumber, Num: 2, NumLit: "2"}},
		}},
		opts: []SerializerOption{WithSortedKeys()},
		want: `{"a":2,"b":1}`,
	},
	"indented object": {
		value: ResolvedValue{Kind: ResolvedObject, Fields: []ResolvedField{
			{Key: "a", Value: ResolvedValue{Kind: ResolvedNumber, Num: 1, NumLit: "1"}},
		}},
		opts: []SerializerOption{WithIndent("  ")},
		want: "{\n  \"a\": 1\n}",
	},
}

func TestSerializer(t *testing.T) {
	for name, cfg := range serializerTests {
		cfg.runTest(t, name)
	}
}

func TestSerializerNestedIndent(t *testing.T) {
	v := ResolvedValue{Kind: ResolvedObject, Fields: []ResolvedField{
		{Key: "outer", Value: ResolvedValue{Kind: ResolvedArray, Elements: []ResolvedValue{
			{Kind: ResolvedString, Str: "x"},
		}}},
	}}
	got, err := NewSerializer(WithIndent("  ")).Serialize(v)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !strings.Contains(got, "\n    \"x\"") {
		t.Fatalf("expected nested element indented two levels, got %q", got)
	}
}
