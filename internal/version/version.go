// Package version carries build metadata injected via -ldflags.
package version

var (
	// Name is the binary name
	Name = "promptcraft"
	// Version is the semantic version, overridden at build time
	Version = "v0.1.0-dev"
	// Commit is the git commit hash
	Commit = ""
	// BuildDate is the RFC3339 build timestamp
	BuildDate = ""
)

// UserAgent is sent with every backend request.
func UserAgent() string {
	return Name + "/" + Version
}
