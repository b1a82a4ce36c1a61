// Package ir defines the resolved program representation: kinds, values,
// the closed set of top-level Things, and the [Bag] that holds every Thing
// resolved during one run.
//
// Things refer to each other through interned [ID]s rather than pointers,
// so records and or-types may be recursive or mutually recursive.
package ir
