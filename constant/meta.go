// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Dvrdeck is the canonical application identifier used for filesystem paths and CLI branding.
	Dvrdeck = "dvrdeck"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// Build metadata, overridden at link time by the release workflow.
var (
	Revision = "dev"
	BuiltAt  = ""
	BuiltBy  = ""
)
