// Package cont implements the suspension protocol shared by every kind of
// input the resolver can wait for.
//
// A suspension is a [Pending] value: the requests the caller must answer and
// the function that splices the answers back into the suspended state.
// Answers are matched to requests by key. The caller must answer every
// request exactly once, and a Pending accepts answers only once.
package cont
