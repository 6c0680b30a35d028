package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// YouTubeExtractor talks to YouTube directly without shelling out to yt-dlp.
// Merge selectors ("bestvideo+bestaudio") need ffmpeg; without it they fall
// back to the best muxed stream.
type YouTubeExtractor struct {
	client *youtube.Client
}

// NewYouTubeExtractor creates a native YouTube extractor. A nil httpClient
// uses the library default.
func NewYouTubeExtractor(httpClient *http.Client) *YouTubeExtractor {
	client := &youtube.Client{}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	return &YouTubeExtractor{client: client}
}

func (e *YouTubeExtractor) Name() string {
	return "youtube"
}

func (e *YouTubeExtractor) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, probeError(url, err)
	}

	info := &VideoInfo{
		ID:      video.ID,
		Title:   video.Title,
		Formats: make([]RawFormat, 0, len(video.Formats)),
	}
	// Thumbnails are ordered smallest first
	if n := len(video.Thumbnails); n > 0 {
		info.Thumbnail = video.Thumbnails[n-1].URL
	}
	for _, f := range video.Formats {
		info.Formats = append(info.Formats, rawFormatFromYouTube(f))
	}
	return info, nil
}

func (e *YouTubeExtractor) Fetch(ctx context.Context, url, selector, outputDir string) (string, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return "", fetchError(url, err)
	}

	picked, err := selectYouTubeFormats(video.Formats, selector, FFmpegAvailable())
	if err != nil {
		return "", fetchError(url, err)
	}

	title := SanitizeFilename(video.Title)
	if title == "" {
		title = video.ID
	}

	if len(picked) == 1 {
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", title, youtubeExt(picked[0].MimeType)))
		if err := e.saveStream(ctx, video, picked[0], outputPath); err != nil {
			return "", fetchError(url, err)
		}
		return outputPath, nil
	}

	// Separate video and audio streams, merged with ffmpeg
	vf, af := picked[0], picked[1]
	videoPath := filepath.Join(outputDir, fmt.Sprintf("%s.f%d.%s", title, vf.ItagNo, youtubeExt(vf.MimeType)))
	audioPath := filepath.Join(outputDir, fmt.Sprintf("%s.f%d.%s", title, af.ItagNo, youtubeExt(af.MimeType)))
	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", title, mergedExt(youtubeExt(vf.MimeType), youtubeExt(af.MimeType))))

	// Stream parts are removed whether or not the merge succeeds
	defer removeParts(videoPath, audioPath)

	if err := e.saveStream(ctx, video, vf, videoPath); err != nil {
		return "", fetchError(url, err)
	}
	if err := e.saveStream(ctx, video, af, audioPath); err != nil {
		return "", fetchError(url, err)
	}
	if err := MergeVideoAudio(ctx, videoPath, audioPath, outputPath); err != nil {
		return "", fetchError(url, err)
	}

	return outputPath, nil
}

func removeParts(paths ...string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

func (e *YouTubeExtractor) saveStream(ctx context.Context, video *youtube.Video, format *youtube.Format, outputPath string) error {
	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return err
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeStream(file, stream)
}

// writeStream copies src into file and closes it. Close errors are
// reported so a failed flush is not mistaken for a complete download.
func writeStream(file io.WriteCloser, src io.Reader) error {
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		return fmt.Errorf("download failed: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to finalize output file: %w", err)
	}
	return nil
}

// parseMimeType splits `video/mp4; codecs="avc1.4d401e, mp4a.40.2"` into
// kind ("video"), subtype ("mp4") and codec list.
func parseMimeType(mimeType string) (kind, subtype string, codecs []string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	kind, subtype, _ = strings.Cut(mediaType, "/")

	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	return kind, subtype, codecs
}

// youtubeExt maps a stream mime type to the file extension yt-dlp would use
func youtubeExt(mimeType string) string {
	kind, subtype, _ := parseMimeType(mimeType)
	switch {
	case kind == "audio" && subtype == "mp4":
		return "m4a"
	case subtype == "":
		return "unknown"
	default:
		return subtype
	}
}

func rawFormatFromYouTube(f youtube.Format) RawFormat {
	kind, _, codecs := parseMimeType(f.MimeType)

	raw := RawFormat{
		FormatID: strconv.Itoa(f.ItagNo),
		Ext:      youtubeExt(f.MimeType),
		FPS:      float64(f.FPS),
		Height:   f.Height,
		VCodec:   "none",
		ACodec:   "none",
	}

	codecAt := func(i int) string {
		if i < len(codecs) {
			return codecs[i]
		}
		return "unknown"
	}

	switch kind {
	case "video":
		raw.VCodec = codecAt(0)
		raw.FormatNote = f.QualityLabel
		if f.AudioChannels > 0 {
			raw.ACodec = codecAt(1)
		}
	case "audio":
		raw.ACodec = codecAt(0)
		raw.FormatNote = strings.ToLower(strings.TrimPrefix(f.AudioQuality, "AUDIO_QUALITY_"))
		raw.ABR = float64(audioBitrate(f)) / 1000
	}

	return raw
}

func audioBitrate(f youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

var extFilterRegex = regexp.MustCompile(`\[ext=([a-z0-9]+)\]`)

// selectYouTubeFormats resolves a yt-dlp style selector against the formats
// YouTube offers. Numeric selectors match an itag exactly; otherwise each
// "/"-separated alternative is tried in order. A "video+audio" alternative
// yields two formats when canMerge is set, else only its first operand is
// used and it must be a muxed stream.
func selectYouTubeFormats(formats youtube.FormatList, selector string, canMerge bool) ([]*youtube.Format, error) {
	if selector == "" {
		selector = SelectorBest
	}

	if itag, err := strconv.Atoi(selector); err == nil {
		for i := range formats {
			if formats[i].ItagNo == itag {
				return []*youtube.Format{&formats[i]}, nil
			}
		}
		return nil, fmt.Errorf("requested format %s is not available", selector)
	}

	for _, alt := range strings.Split(selector, "/") {
		videoTerm, audioTerm, merge := strings.Cut(alt, "+")

		if merge && canMerge {
			vf := pickYouTubeFormat(formats, videoTerm, false)
			af := pickYouTubeFormat(formats, audioTerm, false)
			if vf != nil && af != nil {
				return []*youtube.Format{vf, af}, nil
			}
			continue
		}

		if f := pickYouTubeFormat(formats, videoTerm, true); f != nil {
			return []*youtube.Format{f}, nil
		}
	}

	return nil, errors.New("requested format is not available")
}

// pickYouTubeFormat returns the best format matching a single selector term
// such as "bestvideo[ext=mp4]". With muxedOnly, video terms only match
// streams that also carry audio.
func pickYouTubeFormat(formats youtube.FormatList, term string, muxedOnly bool) *youtube.Format {
	name := term
	if i := strings.Index(term, "["); i >= 0 {
		name = term[:i]
	}
	var wantExt string
	if m := extFilterRegex.FindStringSubmatch(term); m != nil {
		wantExt = m[1]
	}

	var candidates []*youtube.Format
	for i := range formats {
		f := &formats[i]
		kind, _, _ := parseMimeType(f.MimeType)
		if wantExt != "" && youtubeExt(f.MimeType) != wantExt {
			continue
		}
		switch strings.TrimSuffix(name, "*") {
		case "bestaudio", "ba":
			if kind == "audio" {
				candidates = append(candidates, f)
			}
		case "bestvideo", "bv":
			if kind == "video" && (!muxedOnly || f.AudioChannels > 0) {
				candidates = append(candidates, f)
			}
		case "best", "b":
			if kind == "video" && f.AudioChannels > 0 {
				candidates = append(candidates, f)
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Height != candidates[j].Height {
			return candidates[i].Height > candidates[j].Height
		}
		return audioBitrate(*candidates[i]) > audioBitrate(*candidates[j])
	})
	return candidates[0]
}
