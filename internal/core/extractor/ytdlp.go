package extractor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpExtractor delegates extraction and download to yt-dlp
type YtdlpExtractor struct {
	executable string
	quiet      bool
}

// YtdlpOptions configures the yt-dlp backend
type YtdlpOptions struct {
	// Executable overrides the yt-dlp binary resolved by go-ytdlp
	Executable string
	Quiet      bool
}

// NewYtdlpExtractor creates a yt-dlp backed extractor
func NewYtdlpExtractor(opts YtdlpOptions) *YtdlpExtractor {
	return &YtdlpExtractor{
		executable: opts.Executable,
		quiet:      opts.Quiet,
	}
}

// InstallYtdlp makes sure a yt-dlp binary is available, downloading one into
// the go-ytdlp cache if needed.
func InstallYtdlp(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func (e *YtdlpExtractor) Name() string {
	return "ytdlp"
}

func (e *YtdlpExtractor) command() *ytdlp.Command {
	dl := ytdlp.New().NoPlaylist()
	if e.executable != "" {
		dl = dl.SetExecutable(e.executable)
	}
	if e.quiet {
		dl = dl.Quiet()
	}
	return dl
}

func (e *YtdlpExtractor) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	res, err := e.command().
		SkipDownload().
		PrintJSON().
		Run(ctx, url)
	if err != nil {
		return nil, probeError(url, runError(res, err))
	}

	info, err := decodeYtdlpInfo(res.Stdout)
	if err != nil {
		return nil, probeError(url, err)
	}
	return info.toVideoInfo(), nil
}

func (e *YtdlpExtractor) Fetch(ctx context.Context, url, selector, outputDir string) (string, error) {
	if selector == "" {
		selector = SelectorBest
	}

	res, err := e.command().
		Format(selector).
		Output(filepath.Join(outputDir, OutputTemplate)).
		PrintJSON().
		Run(ctx, url)
	if err != nil {
		return "", fetchError(url, runError(res, err))
	}

	info, err := decodeYtdlpInfo(res.Stdout)
	if err != nil {
		return "", fetchError(url, err)
	}

	path := info.outputPath()
	if path == "" {
		return "", fetchError(url, errors.New("yt-dlp did not report an output file"))
	}
	if _, err := os.Stat(path); err != nil {
		return "", fetchError(url, fmt.Errorf("downloaded file missing: %w", err))
	}
	return path, nil
}

// ytdlpInfo mirrors the subset of yt-dlp's info JSON we rely on
type ytdlpInfo struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Thumbnail          string        `json:"thumbnail"`
	Ext                string        `json:"ext"`
	Filename           string        `json:"filename"`
	LegacyFilename     string        `json:"_filename"`
	Formats            []ytdlpFormat `json:"formats"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

type ytdlpFormat struct {
	FormatID   string  `json:"format_id"`
	FormatNote string  `json:"format_note"`
	Ext        string  `json:"ext"`
	FPS        float64 `json:"fps"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	Height     float64 `json:"height"`
	ABR        float64 `json:"abr"`
}

func (i *ytdlpInfo) toVideoInfo() *VideoInfo {
	info := &VideoInfo{
		ID:        i.ID,
		Title:     i.Title,
		Thumbnail: i.Thumbnail,
		Formats:   make([]RawFormat, 0, len(i.Formats)),
	}
	for _, f := range i.Formats {
		info.Formats = append(info.Formats, RawFormat{
			FormatID:   f.FormatID,
			FormatNote: f.FormatNote,
			Ext:        f.Ext,
			FPS:        f.FPS,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			Height:     int(f.Height),
			ABR:        f.ABR,
		})
	}
	return info
}

// outputPath returns the final file path. After merging or post-processing
// the path in requested_downloads is authoritative.
func (i *ytdlpInfo) outputPath() string {
	for _, d := range i.RequestedDownloads {
		if d.Filepath != "" {
			return d.Filepath
		}
	}
	if i.Filename != "" {
		return i.Filename
	}
	return i.LegacyFilename
}

// decodeYtdlpInfo parses the last JSON object line printed by yt-dlp
func decodeYtdlpInfo(stdout string) (*ytdlpInfo, error) {
	var line string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(text, "{") {
			line = text
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read yt-dlp output: %w", err)
	}
	if line == "" {
		return nil, errors.New("yt-dlp returned no metadata")
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(line), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// runError prefers yt-dlp's own "ERROR:" line over the exit status
func runError(res *ytdlp.Result, err error) error {
	if res == nil {
		return err
	}
	if msg := lastErrorLine(res.Stderr); msg != "" {
		return &ExtractionError{Message: msg, Err: err}
	}
	return err
}

func lastErrorLine(stderr string) string {
	var msg string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			msg = line
		}
	}
	return msg
}
