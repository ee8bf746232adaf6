package defs

// Common labels for logging
const (
	LabelComponent = "component"

	LabelDirectory = "directory"
	LabelSource    = "source"
)
