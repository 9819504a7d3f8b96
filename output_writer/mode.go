package output_writer

// Mode selects what happens to a model response.
type Mode int

const (
	// ModeStdout prints each response and leaves files untouched.
	ModeStdout Mode = iota
	// ModeInPlace overwrites each file with its response.
	ModeInPlace
	// ModeDryRun only lists the files that would be processed.
	ModeDryRun
)

// ResolveMode picks the mode once per run. Dry run wins over in-place.
func ResolveMode(inPlace bool, dry bool) Mode {
	switch {
	case dry:
		return ModeDryRun
	case inPlace:
		return ModeInPlace
	default:
		return ModeStdout
	}
}

func (m Mode) String() string {
	switch m {
	case ModeInPlace:
		return "in-place"
	case ModeDryRun:
		return "dry-run"
	default:
		return "stdout"
	}
}
