// Package eval evaluates condition and value expressions with expr-lang.
//
// Expressions are written in expr-lang syntax with two extensions: a
// reference may be prefixed by "$", and identifiers may contain hyphens
// and dots ("dark-mode", "card.title"). A hyphen between two identifier
// characters is part of the name, so subtraction must be written with
// whitespace around "-".
//
// Every reference is rewritten to a placeholder before compilation, so one
// compiled program serves any mapping of reference values. Calls to
// functions that are not expr-lang builtins, or that [WithFunctions]
// claims, are routed through the [Functions] table supplied at evaluation
// time.
//
// Numeric semantics are fixed: integers are 64-bit two's complement and
// wrap on overflow; "/" between two integers truncates toward zero and
// otherwise yields a decimal; "/" and "%" with a zero divisor fail with
// [ErrDivisionByZero]. Evaluation has no side effects.
package eval
