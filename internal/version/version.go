package version

// Build metadata, set with -ldflags "-X stddevalert/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
