package resolve

import (
	"log/slog"
	"strconv"
)

// Code is a stable, machine-readable diagnostic kind.
type Code string

const (
	CodeUnresolvedSymbol       Code = "unresolved-symbol"
	CodeKindMismatch           Code = "kind-mismatch"
	CodeCyclicDependency       Code = "cyclic-dependency"
	CodeDuplicateDefinition    Code = "duplicate-definition"
	CodeInvalidImportTarget    Code = "invalid-import-target"
	CodeProcessorFailed        Code = "processor-failed"
	CodeForeignVariableMissing Code = "foreign-variable-missing"
	CodeExpressionEvaluation   Code = "expression-evaluation-error"
	CodeSyntax                 Code = "syntax-error"
)

// Severity of a diagnostic.
type Severity uint8

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

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Diagnostic is a source-level problem found during resolution.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Document string
	Line     int
	Message  string
	Symbol   string `yaml:",omitempty" json:",omitempty"`
	Hint     string `yaml:",omitempty" json:",omitempty"`
	// Derived marks a diagnostic caused by depending on a poisoned symbol.
	Derived bool `yaml:",omitempty" json:",omitempty"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	msg := d.Document + ":" + strconv.Itoa(d.Line) + ": " + string(d.Code) + ": " + d.Message
	if d.Hint != "" {
		msg += " (" + d.Hint + ")"
	}

	return msg
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(d.Code)),
		slog.String("severity", d.Severity.String()),
		slog.String("document", d.Document),
		slog.Int("line", d.Line),
		slog.String("message", d.Message),
	}

	if d.Symbol != "" {
		attrs = append(attrs, slog.String("symbol", d.Symbol))
	}

	if d.Hint != "" {
		attrs = append(attrs, slog.String("hint", d.Hint))
	}

	return slog.GroupValue(attrs...)
}

// Diagnostics is the ordered list of diagnostics of one run.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Errors returns the diagnostics with error severity.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics

	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}

	return out
}

// WithCode returns the diagnostics with the given code.
func (ds Diagnostics) WithCode(code Code) Diagnostics {
	var out Diagnostics

	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}

	return out
}
