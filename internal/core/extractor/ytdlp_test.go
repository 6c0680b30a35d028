package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yt-dlp prints one JSON object per line after its own log lines
const sampleProbeOutput = "[youtube] Extracting URL: https://www.youtube.com/watch?v=abc\n" +
	`{"id": "abc", "title": "Song", "thumbnail": "https://i.ytimg.com/vi/abc/maxresdefault.jpg", "ext": "webm", "formats": [` +
	`{"format_id": "sb0", "format_note": "storyboard", "ext": "mhtml", "vcodec": "none", "acodec": "none"}, ` +
	`{"format_id": "140", "format_note": "medium", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "abr": 129.478, "fps": null, "height": null}, ` +
	`{"format_id": "137", "format_note": "1080p", "ext": "mp4", "vcodec": "avc1.640028", "acodec": "none", "height": 1080, "fps": 30}` +
	`]}` + "\n"

func TestDecodeYtdlpInfo(t *testing.T) {
	info, err := decodeYtdlpInfo(sampleProbeOutput)
	require.NoError(t, err)

	video := info.toVideoInfo()
	assert.Equal(t, "abc", video.ID)
	assert.Equal(t, "Song", video.Title)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/maxresdefault.jpg", video.Thumbnail)
	require.Len(t, video.Formats, 3)

	assert.Equal(t, RawFormat{FormatID: "sb0", FormatNote: "storyboard", Ext: "mhtml", VCodec: "none", ACodec: "none"}, video.Formats[0])
	assert.Equal(t, RawFormat{FormatID: "140", FormatNote: "medium", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 129.478}, video.Formats[1])
	assert.Equal(t, RawFormat{FormatID: "137", FormatNote: "1080p", Ext: "mp4", VCodec: "avc1.640028", ACodec: "none", Height: 1080, FPS: 30}, video.Formats[2])
}

func TestDecodeYtdlpInfoErrors(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{name: "empty", stdout: ""},
		{name: "no json", stdout: "[info] nothing to see\n"},
		{name: "broken json", stdout: "{\"id\": \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeYtdlpInfo(tt.stdout)
			assert.Error(t, err)
		})
	}
}

func TestYtdlpOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		expected string
	}{
		{
			name:     "requested downloads wins",
			stdout:   `{"filename": "downloads/Song.webm", "_filename": "downloads/Song.webm", "requested_downloads": [{"filepath": "downloads/Song.mp3"}]}`,
			expected: "downloads/Song.mp3",
		},
		{
			name:     "filename",
			stdout:   `{"filename": "downloads/Song.mp4", "_filename": "downloads/old.mp4"}`,
			expected: "downloads/Song.mp4",
		},
		{
			name:     "legacy filename",
			stdout:   `{"_filename": "downloads/Song.mkv"}`,
			expected: "downloads/Song.mkv",
		},
		{
			name:     "nothing reported",
			stdout:   `{"id": "abc"}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := decodeYtdlpInfo(tt.stdout)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, info.outputPath())
		})
	}
}

func TestRunErrorPrefersStderr(t *testing.T) {
	exitErr := errors.New("exit status 1")

	res := &ytdlp.Result{
		Stderr: "WARNING: something odd\nERROR: [generic] Unsupported URL: https://example.com/v\n",
	}
	err := probeError("https://example.com/v", runError(res, exitErr))

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "ERROR: [generic] Unsupported URL: https://example.com/v", extErr.Error())
	assert.Equal(t, "probe", extErr.Op)
	assert.Equal(t, "https://example.com/v", extErr.URL)
	assert.ErrorIs(t, err, exitErr)
}

func TestRunErrorFallsBack(t *testing.T) {
	exitErr := errors.New("exec: \"yt-dlp\": executable file not found in $PATH")

	err := fetchError("https://example.com/v", runError(nil, exitErr))
	assert.EqualError(t, err, exitErr.Error())
	assert.True(t, IsExtractionError(err))

	err = fetchError("https://example.com/v", runError(&ytdlp.Result{Stderr: "no errors here"}, exitErr))
	assert.EqualError(t, err, exitErr.Error())
}

// fakeYtdlp writes a stand-in yt-dlp script that records its argv and prints
// stdout, or fails with an ERROR line when the URL contains "fail".
type fakeYtdlp struct {
	dir  string
	path string
}

func newFakeYtdlp(t *testing.T, stdout string) *fakeYtdlp {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}

	dir := t.TempDir()
	f := &fakeYtdlp{dir: dir, path: filepath.Join(dir, "yt-dlp")}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stdout"), []byte(stdout), 0644))

	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %q
for last; do :; done
case "$last" in
  *fail*) echo "ERROR: Unsupported URL: $last" >&2; exit 1 ;;
esac
cat %q
`, filepath.Join(dir, "args"), filepath.Join(dir, "stdout"))
	require.NoError(t, os.WriteFile(f.path, []byte(script), 0755))
	return f
}

func (f *fakeYtdlp) args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, "args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// assertFlagValue checks that flag appears in args immediately followed by value
func assertFlagValue(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			assert.Equal(t, value, args[i+1], "value of %s", flag)
			return
		}
	}
	t.Errorf("%s not found in %v", flag, args)
}

func TestYtdlpProbe(t *testing.T) {
	fake := newFakeYtdlp(t, sampleProbeOutput)
	e := NewYtdlpExtractor(YtdlpOptions{Executable: fake.path})

	info, err := e.Probe(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "Song", info.Title)
	assert.Len(t, info.Formats, 3)

	args := fake.args(t)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", args[len(args)-1])
	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--skip-download")
	assert.Contains(t, args, "--print-json")
	assert.NotContains(t, args, "--quiet")
	assert.NotContains(t, args, "--format")
}

func TestYtdlpProbeFailure(t *testing.T) {
	fake := newFakeYtdlp(t, sampleProbeOutput)
	e := NewYtdlpExtractor(YtdlpOptions{Executable: fake.path})

	_, err := e.Probe(context.Background(), "https://e/fail")

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "ERROR: Unsupported URL: https://e/fail", extErr.Error())
	assert.Equal(t, "probe", extErr.Op)
	assert.Equal(t, "https://e/fail", extErr.URL)
}

func TestYtdlpFetch(t *testing.T) {
	outputDir := t.TempDir()
	songPath := filepath.Join(outputDir, "Song.mp3")
	require.NoError(t, os.WriteFile(songPath, []byte("audio"), 0644))

	fake := newFakeYtdlp(t, fmt.Sprintf(`{"id": "abc", "title": "Song", "requested_downloads": [{"filepath": %q}]}`+"\n", songPath))
	e := NewYtdlpExtractor(YtdlpOptions{Executable: fake.path, Quiet: true})

	path, err := e.Fetch(context.Background(), "https://e/v", "bestaudio[ext=mp3]", outputDir)
	require.NoError(t, err)
	assert.Equal(t, songPath, path)

	args := fake.args(t)
	assert.Equal(t, "https://e/v", args[len(args)-1])
	assertFlagValue(t, args, "--format", "bestaudio[ext=mp3]")
	assertFlagValue(t, args, "--output", filepath.Join(outputDir, OutputTemplate))
	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--quiet")
	assert.Contains(t, args, "--print-json")
	assert.NotContains(t, args, "--skip-download")
}

func TestYtdlpFetchDefaultsToBest(t *testing.T) {
	outputDir := t.TempDir()
	videoPath := filepath.Join(outputDir, "Clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("video"), 0644))

	fake := newFakeYtdlp(t, fmt.Sprintf(`{"filename": %q}`+"\n", videoPath))
	e := NewYtdlpExtractor(YtdlpOptions{Executable: fake.path})

	path, err := e.Fetch(context.Background(), "https://e/v", "", outputDir)
	require.NoError(t, err)
	assert.Equal(t, videoPath, path)
	assertFlagValue(t, fake.args(t), "--format", SelectorBest)
}

func TestYtdlpFetchErrors(t *testing.T) {
	outputDir := t.TempDir()
	missing := filepath.Join(outputDir, "Gone.mp4")

	tests := []struct {
		name    string
		stdout  string
		url     string
		wantErr string
	}{
		{
			name:    "yt-dlp error line",
			stdout:  `{"filename": "unused"}`,
			url:     "https://e/fail",
			wantErr: "ERROR: Unsupported URL: https://e/fail",
		},
		{
			name:    "reported file missing",
			stdout:  fmt.Sprintf(`{"filename": %q}`, missing),
			url:     "https://e/v",
			wantErr: "downloaded file missing",
		},
		{
			name:    "no file reported",
			stdout:  `{"id": "abc"}`,
			url:     "https://e/v",
			wantErr: "yt-dlp did not report an output file",
		},
		{
			name:    "no metadata",
			stdout:  "[download] Destination: somewhere",
			url:     "https://e/v",
			wantErr: "yt-dlp returned no metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeYtdlp(t, tt.stdout+"\n")
			e := NewYtdlpExtractor(YtdlpOptions{Executable: fake.path})

			path, err := e.Fetch(context.Background(), tt.url, "best", outputDir)
			assert.Empty(t, path)

			var extErr *ExtractionError
			require.ErrorAs(t, err, &extErr)
			assert.Equal(t, "fetch", extErr.Op)
			assert.Equal(t, tt.url, extErr.URL)
			assert.Contains(t, extErr.Error(), tt.wantErr)
		})
	}
}
