// Package flags defines canonical CLI flag names shared across the CLI and
// the messages that refer to them.
//
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVarP(&opts.Out, flags.FlagOut, flags.ShortOut, "", "...")
//	Display(flags.FlagOut, flags.ShortOut) // "-o/--out"
package flags

const (
	// Inputs
	FlagConfig = "config"
	FlagDir    = "dir"

	// Outputs
	FlagOut    = "out"
	FlagErr    = "err"
	FlagStrict = "strict"

	// Runtime
	FlagSemgrepBin = "semgrep-bin"
	FlagLogLevel   = "log-level"

	// Rules
	FlagQuiet  = "quiet"
	FlagSelect = "select"
)

const (
	ShortConfig   = "c"
	ShortDir      = "d"
	ShortOut      = "o"
	ShortErr      = "e"
	ShortLogLevel = "l"
	ShortQuiet    = "q"
)

// Display renders a flag the way usage errors name it, e.g. "-o/--out".
func Display(name, short string) string {
	if short == "" {
		return "--" + name
	}
	return "-" + short + "/--" + name
}
