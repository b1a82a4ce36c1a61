// Package section splits markup source into a tree of sections.
//
// A section begins with a line of the form
//
//	-- [kind] name: caption
//
// followed by header lines (`[kind] key [if { condition }]: value`), a blank
// line, and an optional free-form body. A section named X is closed by
// `-- end: X`; every section opened after it becomes one of its children.
//
// Lines beginning with ";;" are comments, lines beginning with ";;;" are doc
// comments attached to the following section (or to the file, when they
// appear first and are followed by a blank line), and a section whose marker
// is "/--" is commented out together with its headers and body.
//
// The parser is purely syntactic: it never interprets kinds, names or
// values. Problems are accumulated on the returned [File] rather than
// aborting the parse.
package section
