package gotlui

// Version information for gotlui.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/gotlui.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "gotlui"

	// Description is a short description of the application.
	Description = "UI fragment translation with caching and batched dispatch"

	// Version is the semantic version of the application.
	Version = "0.2.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/gotlui"
)

// Build information, typically set via ldflags.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit appended
// when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
