package version

// Set at link time with -ldflags "-X github.com/Norgate-AV/widgetpack/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
