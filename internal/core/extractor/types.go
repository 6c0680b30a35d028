package extractor

import (
	"context"
	"regexp"
	"strings"
)

// SelectorBest is the "best available" format selector
const SelectorBest = "best"

// OutputTemplate is the filename template every backend writes to
const OutputTemplate = "%(title)s.%(ext)s"

// Extractor resolves a URL to stream metadata and fetches a selected stream.
// Implementations are opaque: site parsing, stream selection and retrieval all
// happen behind this interface.
type Extractor interface {
	// Name returns the backend name (e.g., "ytdlp", "youtube")
	Name() string

	// Probe retrieves metadata for the URL without downloading anything
	Probe(ctx context.Context, url string) (*VideoInfo, error)

	// Fetch downloads the stream chosen by selector into outputDir and
	// returns the path of the written file
	Fetch(ctx context.Context, url, selector, outputDir string) (string, error)
}

// VideoInfo contains extracted video metadata
type VideoInfo struct {
	ID        string
	Title     string
	Thumbnail string
	Formats   []RawFormat
}

// RawFormat is a single format record as reported by the backend.
// Absent fields are left at their zero value.
type RawFormat struct {
	FormatID   string
	FormatNote string
	Ext        string
	FPS        float64
	VCodec     string
	ACodec     string
	Height     int
	ABR        float64 // kbps
}

// HasVideo reports whether the record carries a video stream
func (f RawFormat) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// HasAudio reports whether the record carries an audio stream
func (f RawFormat) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

var (
	urlRegex   = regexp.MustCompile(`https?://[^\s]+`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		"\x00", "",
		"\n", " ",
		"\r", "",
		"\t", " ",
	)
	// URLs go first, before ":" and "/" are rewritten
	result := urlRegex.ReplaceAllString(name, "")
	result = replacer.Replace(result)

	// Trim spaces and dots from ends
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")

	result = spaceRegex.ReplaceAllString(result, " ")

	// Most filesystems limit filenames to 255 bytes. 60 runes leaves room for
	// multi-byte characters plus the extension.
	const maxRunes = 60
	runes := []rune(result)
	if len(runes) > maxRunes {
		result = string(runes[:maxRunes])
	}

	return strings.TrimSpace(result)
}
