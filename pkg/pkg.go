//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the ftdr module embedded at build time.
// It is printed by the CLI when users invoke the version flag.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and default config paths.
	Name = "ftdr"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Resumable document resolution engine"
	// PathEnv names the environment variable holding extra module search
	// roots, separated by the host path list separator.
	PathEnv = "FTDR_PATH"
	// VarEnvPrefix prefixes environment variables that supply foreign
	// variables, such as FTDR_VAR_DARK_MODE for dark-mode.
	VarEnvPrefix = "FTDR_VAR_"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
