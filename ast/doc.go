// Package ast builds the unresolved form of a document from its sections:
// imports, named definitions in source order, and content.
package ast
