package extractor

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
)

// FFmpegAvailable checks if ffmpeg is installed and available in PATH
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// mergedExt picks the container for a merged download. mp4 video with
// m4a or mp4 audio stays mp4, webm with webm stays webm, anything else
// goes to mkv.
func mergedExt(videoExt, audioExt string) string {
	if videoExt == "mp4" && (audioExt == "m4a" || audioExt == "mp4") {
		return "mp4"
	}
	if videoExt == "webm" && audioExt == "webm" {
		return "webm"
	}
	return "mkv"
}

// ffmpegMergeArgs builds a stream-copy merge taking video from the first
// input and audio from the second.
func ffmpegMergeArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c", "copy",
		"-y",
		outputPath,
	}
}

// MergeVideoAudio merges separate video and audio files into outputPath
// without re-encoding. The inputs are left in place.
func MergeVideoAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if !FFmpegAvailable() {
		return fmt.Errorf("ffmpeg not found in PATH")
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", ffmpegMergeArgs(videoPath, audioPath, outputPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("[ffmpeg] merge failed: %v\n%s", err, output)
		return fmt.Errorf("ffmpeg merge failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	return nil
}
