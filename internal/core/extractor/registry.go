package extractor

import (
	"fmt"
	"sort"
	"strings"
)

// Options carries backend-specific settings
type Options struct {
	YtdlpPath string
	Quiet     bool
}

// factory builds a backend from options
type factory func(opts Options) Extractor

// backends maps backend names to their constructors
var backends = map[string]factory{
	"ytdlp": func(opts Options) Extractor {
		return NewYtdlpExtractor(YtdlpOptions{Executable: opts.YtdlpPath, Quiet: opts.Quiet})
	},
	"youtube": func(opts Options) Extractor {
		return NewYouTubeExtractor(nil)
	},
}

// New returns the backend registered under name
func New(name string, opts Options) (Extractor, error) {
	f, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown extractor backend %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return f(opts), nil
}

// List returns all registered backend names, sorted
func List() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
