package mon

import (
	"fmt"

	"github.com/mycelmon/mon/internal/slicesx"
	"github.com/mycelmon/mon/pkg/ast"
)

// Severity classifies how a Diagnostic should affect the overall result
// of an analysis. Only Error turns Diagnostics.HasErrors true.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Kind names one entry of the diagnostic taxonomy: lexical, syntactic,
// resolution, and typing diagnostics.
type Kind string

const (
	KindUnterminatedString     Kind = "UnterminatedString"
	KindInvalidNumber          Kind = "InvalidNumber"
	KindInvalidEscape          Kind = "InvalidEscape"
	KindUnexpectedChar         Kind = "UnexpectedChar"
	KindUnexpectedToken        Kind = "UnexpectedToken"
	KindMissingImportPath      Kind = "MissingImportPath"
	KindInvalidSpreadContext   Kind = "InvalidSpreadContext"
	KindUnknownAlias           Kind = "UnknownAlias"
	KindInvalidAnchorTarget    Kind = "InvalidAnchorTarget"
	KindDuplicateAnchor        Kind = "DuplicateAnchor"
	KindCircularDependency     Kind = "CircularDependency"
	KindImportNotFound         Kind = "ImportNotFound"
	KindImportMemberNotFound   Kind = "ImportMemberNotFound"
	KindSpreadNotObject        Kind = "SpreadNotObject"
	KindSpreadNotArray         Kind = "SpreadNotArray"
	KindUnknownType            Kind = "UnknownType"
	KindTypeMismatch           Kind = "TypeMismatch"
	KindMissingField           Kind = "MissingField"
	KindUnexpectedField        Kind = "UnexpectedField"
	KindEnumVariantUnknown     Kind = "EnumVariantUnknown"
	KindInvalidCollectionPattern Kind = "InvalidCollectionPattern"
	KindShadowedImport         Kind = "ShadowedImport"

	// KindDuplicateField and KindDuplicateEnumVariant cover two cases the
	// base taxonomy leaves implicit: a #struct body redeclaring a field
	// name, and a #enum body redeclaring a variant name.
	KindDuplicateField       Kind = "DuplicateField"
	KindDuplicateEnumVariant Kind = "DuplicateEnumVariant"

	// KindDuplicateType covers a document declaring two #struct/#enum
	// types under the same name. Reusing a name pulled in by an import is
	// tolerated (see KindShadowedImport); reusing one declared locally is
	// not.
	KindDuplicateType Kind = "DuplicateType"
)

// codeEntry is one row of the stable numeric-code registry. Codes are
// never reassigned once published; new kinds take the next unused number.
type codeEntry struct {
	code     string
	severity Severity
}

var diagnosticCodes = map[Kind]codeEntry{
	KindUnterminatedString:       {"E0001", SeverityError},
	KindInvalidNumber:            {"E0002", SeverityError},
	KindInvalidEscape:            {"E0003", SeverityError},
	KindUnexpectedChar:           {"E0004", SeverityError},
	KindUnexpectedToken:          {"E0005", SeverityError},
	KindMissingImportPath:        {"E0006", SeverityError},
	KindInvalidSpreadContext:     {"E0007", SeverityError},
	KindInvalidAnchorTarget:      {"E0008", SeverityError},
	KindUnknownAlias:             {"E0009", SeverityError},
	KindDuplicateAnchor:          {"E0010", SeverityError},
	KindCircularDependency:       {"E0011", SeverityError},
	KindImportNotFound:           {"E0012", SeverityError},
	KindImportMemberNotFound:     {"E0013", SeverityError},
	KindSpreadNotObject:          {"E0014", SeverityError},
	KindSpreadNotArray:           {"E0015", SeverityError},
	KindUnknownType:              {"E0016", SeverityError},
	KindTypeMismatch:             {"E0017", SeverityError},
	KindMissingField:             {"E0018", SeverityError},
	KindUnexpectedField:          {"E0019", SeverityError},
	KindEnumVariantUnknown:       {"E0020", SeverityError},
	KindInvalidCollectionPattern: {"E0021", SeverityError},
	KindShadowedImport:           {"E0022", SeverityWarning},
	KindDuplicateField:           {"E0023", SeverityError},
	KindDuplicateEnumVariant:     {"E0024", SeverityError},
	KindDuplicateType:            {"E0025", SeverityError},
}

// Diagnostic is a value, not an error: stages accumulate as many as they
// can rather than aborting on the first one.
type Diagnostic struct {
	Kind     Kind
	Code     string
	Severity Severity
	Message  string
	Span     ast.Span
	Related  []ast.Span
}

// newDiagnostic looks up the stable code/severity for kind and formats
// Message with fmt.Sprintf(format, args...).
func newDiagnostic(kind Kind, span ast.Span, format string, args ...any) Diagnostic {
	entry, ok := diagnosticCodes[kind]
	if !ok {
		// Every Kind constant must have a registry entry; a miss here is
		// a programmer error in this package, not a user-facing fault.
		panic(fmt.Sprintf("mon: diagnostic kind %q has no registered code", kind))
	}
	return Diagnostic{
		Kind:     kind,
		Code:     entry.code,
		Severity: entry.severity,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

func (d Diagnostic) withRelated(spans ...ast.Span) Diagnostic {
	d.Related = append(append([]ast.Span{}, d.Related...), spans...)
	return d
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Diagnostics is an ordered collection of Diagnostic, in the order the
// pipeline stages emitted them (lexer, parser, then resolver and
// validator); entries are not re-sorted by position.
type Diagnostics []Diagnostic

// HasErrors reports whether any entry has SeverityError. Analyze always
// returns a document; callers use HasErrors to decide whether to trust it.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the SeverityError entries, in their original order.
func (ds Diagnostics) Errors() Diagnostics {
	return slicesx.Filter(ds, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Warnings returns only the SeverityWarning entries, in their original
// order.
func (ds Diagnostics) Warnings() Diagnostics {
	return slicesx.Filter(ds, func(d Diagnostic) bool { return d.Severity == SeverityWarning })
}
