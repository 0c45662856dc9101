// Package version carries build metadata, set at link time with
// -ldflags "-X github.com/banshee-data/invader.radar/internal/version.Version=...".
package version

import "fmt"

var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String formats the build metadata for the -version flag.
func String(program string) string {
	return fmt.Sprintf("%s v%s (git SHA: %s, built: %s)", program, Version, GitSHA, BuildTime)
}
