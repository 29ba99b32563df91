package ytnative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Muxer merges a video stream and an audio stream into one container.
type Muxer interface {
	Merge(ctx context.Context, videoPath, audioPath, dest, container string) error
}

// FFmpegMuxer remuxes with ffmpeg using stream copy.
type FFmpegMuxer struct {
	binary string
}

// NewFFmpegMuxer returns a muxer invoking binary, or "ffmpeg" from PATH when
// empty.
func NewFFmpegMuxer(binary string) *FFmpegMuxer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegMuxer{binary: binary}
}

func (m *FFmpegMuxer) mergeStream(videoPath, audioPath, dest, container string) *ffmpeg.Stream {
	kwargs := ffmpeg.KwArgs{"c": "copy"}
	if container != "" {
		kwargs["f"] = container
	}
	if container == "mp4" || container == "mov" {
		kwargs["movflags"] = "+faststart"
	}
	video := ffmpeg.Input(videoPath)
	audio := ffmpeg.Input(audioPath)
	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, dest, kwargs).
		OverWriteOutput().
		SetFfmpegPath(m.binary)
}

// Merge runs ffmpeg and kills it when ctx is cancelled.
func (m *FFmpegMuxer) Merge(ctx context.Context, videoPath, audioPath, dest, container string) error {
	cmd := m.mergeStream(videoPath, audioPath, dest, container).Compile()
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return ffmpegError(err, stderr.String())
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}

func ffmpegError(err error, stderr string) error {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return errors.New("ffmpeg: " + last)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}
