// Package formats turns raw extractor format records into the
// deduplicated, labelled and capped list offered to callers.
package formats

import (
	"fmt"
	"strconv"

	"github.com/guiyumin/vgrab/internal/core/extractor"
)

// MaxFormats caps the probed list; presets are not counted
const MaxFormats = 20

// Type is the descriptor kind
type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
)

// Descriptor is a single selectable format
type Descriptor struct {
	FormatID    string `json:"format_id"`
	Description string `json:"description"`
	Type        Type   `json:"type"`
	Ext         string `json:"ext"`
}

// Probe is the response for a format listing
type Probe struct {
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail"`
	Presets   []Descriptor `json:"presets"`
	Formats   []Descriptor `json:"formats"`
}

// Presets returns the fixed selectors offered for every video.
// A fresh slice is returned on every call.
func Presets() []Descriptor {
	return []Descriptor{
		{
			FormatID:    "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
			Description: "Best MP4 (video + audio)",
			Type:        TypeVideo,
			Ext:         "mp4",
		},
		{
			FormatID:    "bestvideo+bestaudio/best",
			Description: "Best MKV (video + audio)",
			Type:        TypeVideo,
			Ext:         "mkv",
		},
		{
			FormatID:    "bestaudio[ext=m4a]",
			Description: "Best audio (M4A)",
			Type:        TypeAudio,
			Ext:         "m4a",
		},
		{
			FormatID:    "bestaudio[ext=mp3]",
			Description: "Best audio (MP3)",
			Type:        TypeAudio,
			Ext:         "mp3",
		},
	}
}

// Normalize builds the probe response from extractor output.
// Records are kept in extractor order; the first record for a format_id
// decides whether that id is listed at all.
func Normalize(info *extractor.VideoInfo) *Probe {
	probe := &Probe{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Presets:   Presets(),
		Formats:   []Descriptor{},
	}

	seen := make(map[string]bool)
	for _, f := range info.Formats {
		if seen[f.FormatID] {
			continue
		}
		seen[f.FormatID] = true

		d, ok := describe(f)
		if !ok {
			continue
		}
		probe.Formats = append(probe.Formats, d)
	}

	if len(probe.Formats) > MaxFormats {
		probe.Formats = probe.Formats[:MaxFormats]
	}
	return probe
}

// describe classifies and labels one record. Video wins over audio for
// muxed streams.
func describe(f extractor.RawFormat) (Descriptor, bool) {
	ext := orDefault(f.Ext, "unknown")

	switch {
	case f.HasVideo():
		if f.Height <= 0 {
			return Descriptor{}, false
		}
		return Descriptor{
			FormatID:    f.FormatID,
			Description: fmt.Sprintf("%dp - %s (%s)", f.Height, orDefault(f.FormatNote, "Unknown"), ext),
			Type:        TypeVideo,
			Ext:         ext,
		}, true

	case f.HasAudio():
		if f.ABR <= 0 {
			return Descriptor{}, false
		}
		return Descriptor{
			FormatID:    f.FormatID,
			Description: fmt.Sprintf("Audio %skbps (%s)", strconv.FormatFloat(f.ABR, 'f', -1, 64), ext),
			Type:        TypeAudio,
			Ext:         ext,
		}, true
	}

	return Descriptor{}, false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
