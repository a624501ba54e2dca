// Package muxer invokes an external binary (ffmpeg by default) to combine
// a standalone audio temp file and a standalone video temp file into one
// output container, mirroring the fluent command-builder idiom the wider
// corpus uses for driving ffmpeg subprocesses.
package muxer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dashfetch/dashfetch/internal/config"
	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/util"
)

// CommandBuilder assembles an ffmpeg invocation that remuxes (never
// re-encodes) one or two elementary inputs into a single output container.
type CommandBuilder struct {
	binary     string
	audioPath  string
	videoPath  string
	outputPath string
}

// NewCommandBuilder starts a builder bound to the given binary path.
func NewCommandBuilder(binary string) *CommandBuilder {
	return &CommandBuilder{binary: binary}
}

// Audio sets the audio input path. Empty means no audio input.
func (b *CommandBuilder) Audio(path string) *CommandBuilder {
	b.audioPath = path
	return b
}

// Video sets the video input path. Empty means no video input.
func (b *CommandBuilder) Video(path string) *CommandBuilder {
	b.videoPath = path
	return b
}

// Output sets the destination path; its extension tells ffmpeg the
// container format.
func (b *CommandBuilder) Output(path string) *CommandBuilder {
	b.outputPath = path
	return b
}

// Build renders the argument list for a stream-copy remux: `-c copy`, no
// re-encoding, since §4.H's two temp files already contain final codec
// data lifted straight from the manifest's representations.
func (b *CommandBuilder) Build(ctx context.Context) *exec.Cmd {
	args := []string{"-y", "-loglevel", "error"}
	if b.audioPath != "" {
		args = append(args, "-i", b.audioPath)
	}
	if b.videoPath != "" {
		args = append(args, "-i", b.videoPath)
	}
	args = append(args, "-c", "copy", b.outputPath)

	return exec.CommandContext(ctx, b.binary, args...)
}

// Mux combines audioPath and videoPath (either may be empty, but not both)
// into outputPath using the configured external binary. containerHint is
// currently inferred by ffmpeg itself from outputPath's extension.
func Mux(ctx context.Context, cfg config.MuxerConfig, audioPath, videoPath, outputPath string) error {
	if audioPath == "" && videoPath == "" {
		return fetcherr.New(fetcherr.UnhandledMediaStream, "no audio or video stream to mux")
	}

	binary := cfg.BinaryPath
	if binary == "" {
		name := cfg.Name
		if name == "" {
			name = "ffmpeg"
		}
		found, err := util.FindBinary(name, "DASHFETCH_MUXER_PATH")
		if err != nil {
			return fetcherr.Wrap(fetcherr.Io, fmt.Sprintf("locating %s binary", name), err)
		}
		binary = found
	}

	builder := NewCommandBuilder(binary).Audio(audioPath).Video(videoPath).Output(outputPath)
	cmd := builder.Build(ctx)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fetcherr.Wrap(fetcherr.Io, fmt.Sprintf("muxing failed: %s", stderr.String()), err)
	}
	return nil
}
