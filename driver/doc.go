// Package driver runs the resolver to completion by answering its
// suspensions with host I/O.
//
// [Run] loops [resolve.Continue] and [resolve.ContinueAfter]. Each
// suspension is one batch of requests; the driver answers every request of
// a batch through the configured collaborator:
//
//   - [Loader] supplies module sources ([FS], [Modules]).
//   - [Runner] runs data processors ([Processors]).
//   - [Provider] supplies foreign variables ([Variables]).
//
// Requests of one batch are answered concurrently, so collaborators must
// be safe for concurrent use. A collaborator error affects only the item
// it was raised for: a module or variable becomes "not found", a
// processor call fails with the error text. Cancelling the context ends
// the run with the context error.
package driver
