package downloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/guiyumin/vgrab/internal/core/config"
	"github.com/guiyumin/vgrab/internal/core/extractor"
	"github.com/guiyumin/vgrab/internal/core/extractor/extractortest"
	"github.com/guiyumin/vgrab/internal/core/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "downloads")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	stub := extractortest.New("Song", "mp3")
	d := New(stub, dir, metrics.New())

	res, err := d.Download(context.Background(), "https://example.com/v", "bestaudio[ext=mp3]")
	require.NoError(t, err)

	assert.Equal(t, "Song.mp3", res.Filename)
	assert.Equal(t, filepath.Join(dir, "Song.mp3"), res.Path)
	assert.FileExists(t, res.Path)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, extractortest.Call{Op: "fetch", URL: "https://example.com/v", Selector: "bestaudio[ext=mp3]", OutputDir: dir}, calls[0])
}

func TestDownloadDefaultsToBest(t *testing.T) {
	stub := extractortest.New("Clip", "mp4")
	d := New(stub, t.TempDir(), nil)

	_, err := d.Download(context.Background(), "https://example.com/v", "")
	require.NoError(t, err)

	_, err = d.Stream(context.Background(), "https://example.com/v")
	require.NoError(t, err)

	calls := stub.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, extractor.SelectorBest, calls[0].Selector)
	assert.Equal(t, extractor.SelectorBest, calls[1].Selector)
}

func TestDownloadFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	d := New(extractortest.Failing("ERROR: Unsupported URL"), dir, nil)

	res, err := d.Download(context.Background(), "https://example.com/v", "")
	assert.Nil(t, res)
	assert.EqualError(t, err, "ERROR: Unsupported URL")
	assert.True(t, extractor.IsExtractionError(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFormats(t *testing.T) {
	stub := &extractortest.Stub{Info: &extractor.VideoInfo{
		Title:     "Song",
		Thumbnail: "https://img/song.jpg",
		Formats: []extractor.RawFormat{
			{FormatID: "140", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, Ext: "m4a"},
		},
	}}
	d := New(stub, t.TempDir(), nil)

	probe, err := d.Formats(context.Background(), "https://example.com/v")
	require.NoError(t, err)

	assert.Equal(t, "Song", probe.Title)
	assert.Equal(t, "https://img/song.jpg", probe.Thumbnail)
	require.Len(t, probe.Formats, 1)
	assert.Equal(t, "Audio 128kbps (m4a)", probe.Formats[0].Description)
	assert.Len(t, probe.Presets, 4)
	assert.Equal(t, "stub", d.Backend())
}

func TestFormatsFailure(t *testing.T) {
	d := New(extractortest.Failing("network unreachable"), t.TempDir(), nil)

	probe, err := d.Formats(context.Background(), "https://example.com/v")
	assert.Nil(t, probe)
	assert.EqualError(t, err, "network unreachable")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{3 * 1024 * 1024 / 2, "1.5 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.expected {
			t.Errorf("FormatBytes(%d) = %q; want %q", tt.in, got, tt.expected)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Extractor.Backend = "YouTube"

	d, err := FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "youtube", d.Backend())
	assert.Equal(t, cfg.OutputDir, d.OutputDir())
	assert.DirExists(t, cfg.OutputDir)
}

func TestFromConfigInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Extractor.Backend = "curl"

	_, err := FromConfig(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unsupported extractor backend")
}
