// Package versioninfo holds build metadata injected at link time.
package versioninfo

// These are set via -ldflags at build time. The defaults identify a
// from-source build.
var (
	// Version is the release version (e.g. "0.3.1").
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
