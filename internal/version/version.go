// Package version holds shopmatch build metadata injected via ldflags:
//
//	-X github.com/comparely/shopmatch/internal/version.Version=...
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
