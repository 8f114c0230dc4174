package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/hardtrack/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Full renders the version together with commit and build time when those
// were injected at build time.
func Full() string {
	out := Version
	if GitCommit != "unknown" {
		out += " (" + GitCommit + ")"
	}
	if BuildTime != "unknown" {
		out += " built " + BuildTime
	}
	return out
}
