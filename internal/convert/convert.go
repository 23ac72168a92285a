// Package convert wraps the ffmpeg invocations the pipeline needs: stream-copy segmentation,
// re-encoding to the target profile, and concat-demuxer merging.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Profile is the fixed output encoding. The SegmentProcessor and the Merger must use the same
// value so every segment and the final artifact share codec parameters.
type Profile struct {
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
}

// TargetProfile is H.264 + AAC.
var TargetProfile = Profile{
	VideoCodec:   "libx264",
	Preset:       "fast",
	CRF:          28,
	AudioCodec:   "aac",
	AudioBitrate: "128k",
}

func (p Profile) Args() []string {
	return []string{
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
	}
}

// Runner executes a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpeg is the transcoding engine. Every call blocks until the subprocess exits.
type FFmpeg struct {
	Bin    string
	Runner Runner
}

func New(ffmpegBin string) *FFmpeg {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &FFmpeg{Bin: ffmpegBin, Runner: execRunner{}}
}

// Segment cuts input into segmentSeconds-long pieces without re-encoding.
// pattern is a printf-style path such as /scratch/segment-%03d.mp4.
func (f *FFmpeg) Segment(ctx context.Context, input string, segmentSeconds int, pattern string) error {
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", input,
		"-c", "copy",
		"-map", "0",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-f", "segment",
		"-reset_timestamps", "1", // Important for independent chunks
		pattern,
	}
	return f.run(ctx, "segment", args)
}

// Encode re-encodes one file to the profile.
func (f *FFmpeg) Encode(ctx context.Context, input, output string, p Profile) error {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", input}
	args = append(args, p.Args()...)
	args = append(args, output)
	return f.run(ctx, "encode", args)
}

// Concat joins the files listed in listFile (concat demuxer format) and re-encodes the result
// to the profile.
func (f *FFmpeg) Concat(ctx context.Context, listFile, output string, p Profile) error {
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	args = append(args, p.Args()...)
	args = append(args, output)
	return f.run(ctx, "concat", args)
}

func (f *FFmpeg) run(ctx context.Context, step string, args []string) error {
	output, err := f.Runner.Run(ctx, f.Bin, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w\n%s", step, err, tail(output, 20))
	}
	return nil
}

// WriteConcatList writes one "file '<path>'" line per input, in order. Paths are written absolute:
// the concat demuxer resolves relative entries against the list file's directory, not the cwd.
func WriteConcatList(listFile string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", in, err)
		}
		// The concat demuxer quotes with single quotes; an embedded quote is closed, escaped and reopened.
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return os.WriteFile(listFile, []byte(b.String()), 0644)
}

// tail keeps the last n lines of ffmpeg output; the error is always at the end.
func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
