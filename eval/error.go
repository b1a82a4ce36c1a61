package eval

import "github.com/ardnew/ftdr/ir"

// Predefined errors (sentinel values).
var (
	ErrUnresolvedReference = ir.NewError("unresolved reference")
	ErrDivisionByZero      = ir.NewError("division by zero")
	ErrTypeMismatch        = ir.NewError("type mismatch")
	ErrArity               = ir.NewError("wrong number of arguments")
	ErrUnknownFunction     = ir.NewError("unknown function")
	ErrSyntax              = ir.NewError("expression syntax error")
)
