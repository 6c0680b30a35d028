// Package extractortest provides an in-memory extractor for tests.
package extractortest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/guiyumin/vgrab/internal/core/extractor"
)

// Call records one invocation of the stub
type Call struct {
	Op        string
	URL       string
	Selector  string
	OutputDir string
}

// Stub is an extractor.Extractor that returns canned metadata, writes a
// small file on Fetch and records every call.
type Stub struct {
	// Info is returned by Probe and names the fetched file
	Info *extractor.VideoInfo
	// Ext is the extension of fetched files (default "mp4")
	Ext string
	// Err, when set, fails every call with an ExtractionError carrying its text
	Err error
	// Content is written to fetched files
	Content []byte

	mu    sync.Mutex
	calls []Call
}

var _ extractor.Extractor = (*Stub)(nil)

// New returns a stub reporting the given title and extension
func New(title, ext string) *Stub {
	return &Stub{
		Info: &extractor.VideoInfo{ID: "stub", Title: title},
		Ext:  ext,
	}
}

// Failing returns a stub whose calls all fail with msg
func Failing(msg string) *Stub {
	return &Stub{Err: fmt.Errorf("%s", msg)}
}

func (s *Stub) Name() string {
	return "stub"
}

func (s *Stub) Probe(ctx context.Context, url string) (*extractor.VideoInfo, error) {
	s.record(Call{Op: "probe", URL: url})
	if s.Err != nil {
		return nil, &extractor.ExtractionError{Op: "probe", URL: url, Message: s.Err.Error(), Err: s.Err}
	}
	return s.Info, nil
}

func (s *Stub) Fetch(ctx context.Context, url, selector, outputDir string) (string, error) {
	s.record(Call{Op: "fetch", URL: url, Selector: selector, OutputDir: outputDir})
	if s.Err != nil {
		return "", &extractor.ExtractionError{Op: "fetch", URL: url, Message: s.Err.Error(), Err: s.Err}
	}

	ext := s.Ext
	if ext == "" {
		ext = "mp4"
	}
	title := "video"
	if s.Info != nil && s.Info.Title != "" {
		title = extractor.SanitizeFilename(s.Info.Title)
	}

	content := s.Content
	if content == nil {
		content = []byte("stub:" + selector)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s.%s", title, ext))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Calls returns a copy of the recorded calls
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Stub) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}
