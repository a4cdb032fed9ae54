package codes

// Kind classifies a fatal build failure.
type Kind int

const (
	KindNone Kind = iota
	KindConfig
	KindMalformedEntry
	KindBundler
	KindMissingOutput
	KindIO
)

// ExitCodes maps failure kinds to process exit codes
var ExitCodes = map[Kind]int{
	KindNone:           0,
	KindConfig:         2,
	KindMalformedEntry: 3,
	KindBundler:        4,
	KindMissingOutput:  5,
	KindIO:             6,
}

var descriptions = map[Kind]string{
	KindNone:           "Success",
	KindConfig:         "Configuration error",
	KindMalformedEntry: "Entry exports neither a default export nor App",
	KindBundler:        "Bundler failed",
	KindMissingOutput:  "Compiled output missing",
	KindIO:             "Filesystem error",
}

// IsSuccess returns true if the kind does not indicate a failure
func IsSuccess(k Kind) bool {
	return k == KindNone
}

// ExitCode returns the process exit code for a kind, or 1 if unknown
func ExitCode(k Kind) int {
	if code, ok := ExitCodes[k]; ok {
		return code
	}

	return 1
}

// GetErrorMessage returns the description for a kind, or a generic message if unknown
func GetErrorMessage(k Kind) string {
	if msg, ok := descriptions[k]; ok {
		return msg
	}

	return "Unknown error"
}

func (k Kind) String() string {
	return GetErrorMessage(k)
}
