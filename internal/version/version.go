// Package version carries build metadata, stamped with -ldflags -X.
package version

import "fmt"

var (
	// Version is the planner release, "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata for -version output and logs.
func String() string {
	return fmt.Sprintf("roadmatrix planner %s (%s, built %s)", Version, GitSHA, BuildTime)
}
