package driver

import "github.com/ardnew/ftdr/ir"

// Predefined errors (sentinel values).
var (
	ErrUnknownStatus = ir.NewError("unknown resolution status")
	ErrInvalidModule = ir.NewError("invalid module name")
)
