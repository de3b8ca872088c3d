// Package version carries studyvault build metadata.
package version

// Stamped at build time, e.g.
//
//	go build -ldflags "-X github.com/studyvault-app/studyvault/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
