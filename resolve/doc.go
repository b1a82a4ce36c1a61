// Package resolve turns unresolved documents into a compiled program.
//
// Resolution is a resumable state machine. [Continue] advances a [State] as
// far as it can and returns a [Result] that is either done, carrying the
// [Output], or stuck on one kind of missing input: module sources,
// processor results, or foreign variables. The caller obtains the input and
// hands it back with [ContinueAfter]; nothing inside the engine blocks or
// performs I/O.
//
// Each document being resolved occupies one frame of a stack. A frame moves
// through three phases: imports, definitions and content. Definitions are
// processed from a work queue; one that refers to a definition of the same
// document that is not resolved yet goes to the back of the queue, and a
// pass that makes no progress is resolved by cycle detection on the
// wait-for graph. Fully resolved Things are inserted into the run's
// [ir.Bag].
//
// Source errors never stop resolution. They are recorded as [Diagnostic]s,
// the failing definition or content item is poisoned, and references to it
// produce a single derived diagnostic. Only protocol violations, such as
// answers that do not match the outstanding requests, are returned as Go
// errors.
package resolve
