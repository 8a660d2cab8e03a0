package mon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Serializer renders a ResolvedValue as canonical JSON: stable key
// order, shortest round-tripping number literal, and JSON string
// escaping (control characters are escaped; non-ASCII text is written
// as UTF-8). Encountering an alias, spread, import, type declaration, or
// enum reference here is an internal invariant violation — the
// Resolver must already have stripped or materialized every one of
// those before a value reaches this stage.
type Serializer struct {
	indent string
	sortKeys bool
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithIndent sets the per-level indentation string. The empty string
// (the default) produces compact, single-line output.
func WithIndent(s string) SerializerOption {
	return func(ser *Serializer) { ser.indent = s }
}

// WithSortedKeys orders each object's fields lexicographically instead
// of by first-occurrence position. Off by default: canonical output
// preserves the "first position, last value wins" order the validator
// already established.
func WithSortedKeys() SerializerOption {
	return func(ser *Serializer) { ser.sortKeys = true }
}

func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize renders v as JSON text.
func (s *Serializer) Serialize(v ResolvedValue) (string, error) {
	var b strings.Builder
	if err := s.write(&b, v, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Serializer) write(b *strings.Builder, v ResolvedValue, depth int) error {
	switch v.Kind {
	case ResolvedNull:
		b.WriteString("null")
	case ResolvedBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case ResolvedNumber:
		b.WriteString(formatNumber(v))
	case ResolvedString:
		writeJSONString(b, v.Str)
	case ResolvedArray:
		return s.writeArray(b, v.Elements, depth)
	case ResolvedObject:
		return s.writeObject(b, v.Fields, depth)
	default:
		return errors.Errorf("mon: serializer: unrecognized resolved kind %d", v.Kind)
	}
	return nil
}

func (s *Serializer) writeArray(b *strings.Builder, elems []ResolvedValue, depth int) error {
	if len(elems) == 0 {
		b.WriteString("[]")
		return nil
	}
	b.WriteByte('[')
	for i, el := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		s.newlineIndent(b, depth+1)
		if err := s.write(b, el, depth+1); err != nil {
			return err
		}
	}
	s.newlineIndent(b, depth)
	b.WriteByte(']')
	return nil
}

func (s *Serializer) writeObject(b *strings.Builder, fields []ResolvedField, depth int) error {
	if len(fields) == 0 {
		b.WriteString("{}")
		return nil
	}
	ordered := fields
	if s.sortKeys {
		ordered = append([]ResolvedField{}, fields...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Key < ordered[j].Key })
	}
	b.WriteByte('{')
	for i, f := range ordered {
		if i > 0 {
			b.WriteByte(',')
		}
		s.newlineIndent(b, depth+1)
		writeJSONString(b, f.Key)
		b.WriteByte(':')
		if s.indent != "" {
			b.WriteByte(' ')
		}
		if err := s.write(b, f.Value, depth+1); err != nil {
			return err
		}
	}
	s.newlineIndent(b, depth)
	b.WriteByte('}')
	return nil
}

func (s *Serializer) newlineIndent(b *strings.Builder, depth int) {
	if s.indent == "" {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(s.indent)
	}
}

// formatNumber prefers the original literal's integer-vs-decimal shape
// when it round-trips to the same value, so "3" stays "3" and "3.0"
// stays "3.0" instead of both collapsing to the float64 default
// formatting.
func formatNumber(v ResolvedValue) string {
	if v.NumLit != "" {
		if f, err := strconv.ParseFloat(v.NumLit, 64); err == nil && f == v.Num {
			return v.NumLit
		}
	}
	if v.Num == float64(int64(v.Num)) {
		return strconv.FormatInt(int64(v.Num), 10)
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, "\\u%04x", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
