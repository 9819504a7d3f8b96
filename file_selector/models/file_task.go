package models

// FileTask is one file selected for processing.
type FileTask struct {
	// Path is absolute.
	Path string
	// RelativePath is the slash separated path shown to the user, relative to the working
	// directory when the file lives below it.
	RelativePath string
}
