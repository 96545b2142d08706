package comic

import "strings"

// OutputFormat selects the conversion target for a batch.
type OutputFormat string

const (
	FormatCBZ  OutputFormat = "cbz"
	FormatEPUB OutputFormat = "epub"
	FormatMOBI OutputFormat = "mobi"
)

// ParseFormat converts user input into a known OutputFormat.
func ParseFormat(value string) (OutputFormat, bool) {
	normalized := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case FormatCBZ, FormatEPUB, FormatMOBI:
		return normalized, true
	default:
		return "", false
	}
}

// Ext returns the artifact file extension for the format, dot included.
func (f OutputFormat) Ext() string {
	return "." + string(f)
}

// NeedsConverter reports whether the format requires the external kindlegen
// step after e-book assembly.
func (f OutputFormat) NeedsConverter() bool {
	return f == FormatMOBI
}

// ProcessSpan returns the percentage of the overall progress bar occupied by
// page processing. Mobi runs reserve the upper half for packaging and the
// external conversion.
func (f OutputFormat) ProcessSpan() float64 {
	if f == FormatMOBI {
		return 50
	}
	return 75
}

// Stage identifies one ordered phase of the conversion pipeline.
type Stage string

const (
	StageExtract Stage = "extract"
	StageProcess Stage = "process"
	StagePackage Stage = "package"
	StageConvert Stage = "convert"
)

// Config is the immutable batch-wide conversion configuration copied into
// every entity.
type Config struct {
	Format       OutputFormat
	MaxWidth     int
	MaxHeight    int
	Grayscale    bool
	AutoContrast bool
	Quality      int
	// Compression is the kindlegen compression level (0-2), mobi only.
	Compression int
}
