package app

import "runtime/debug"

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Version returns the ldflags version, or the module version recorded by
// `go install` when the binary was built without ldflags.
func Version() string {
	if BuildVersion != "0.0.0-dev" {
		return BuildVersion
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return BuildVersion
}

// Commit returns the ldflags commit, falling back to the VCS revision
// stamped by the go tool.
func Commit() string {
	if BuildCommit != "unknown" {
		return BuildCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return BuildCommit
}
