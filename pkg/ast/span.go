// Package ast defines the syntax tree produced by the MON parser: the
// Document root, its Values, Members, import statements, and the type
// declarations introduced by #struct/#enum.
package ast

// Span is a half-open byte range [Start, End) into Source, the canonical
// path of the document the range was lexed from (the originPath given to
// Analyze for the root document).
type Span struct {
	Start  int
	End    int
	Source string
}

// Zero reports whether the span carries no position information, that
// is, whether it is the zero Span.
func (s Span) Zero() bool {
	return s.Start == 0 && s.End == 0 && s.Source == ""
}

// Join returns the smallest span covering both a and b. Spans from
// different sources cannot be joined meaningfully; in that case a is
// returned unchanged.
func Join(a, b Span) Span {
	if a.Source != b.Source {
		return a
	}
	start, end := a.Start, a.End
	if b.Start < start {
		start = b.Start
	}
	if b.End > end {
		end = b.End
	}
	return Span{Start: start, End: end, Source: a.Source}
}
