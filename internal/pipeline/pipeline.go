// Package pipeline implements the three stages (split, process, merge) and the driver that
// picks one of them per invocation. Stages only communicate through storage keys and the manifest.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mt4110/seg-transcode/internal/convert"
	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/metrics"
	"github.com/mt4110/seg-transcode/internal/storage"
)

// Transcoder is the engine contract the stages depend on. *convert.FFmpeg satisfies it.
type Transcoder interface {
	Segment(ctx context.Context, input string, segmentSeconds int, pattern string) error
	Encode(ctx context.Context, input, output string, p convert.Profile) error
	Concat(ctx context.Context, listFile, output string, p convert.Profile) error
}

type Pipeline struct {
	Store   storage.Store
	Engine  Transcoder
	Metrics metrics.Sink

	// OutputBucket receives raw segments, the manifest and the final artifact.
	OutputBucket string
	// WorkDir is the scratch root; each invocation works in its own subdirectory.
	WorkDir string
	// KeepScratch leaves the invocation directory behind for debugging.
	KeepScratch bool
}

func New(store storage.Store, engine Transcoder, sink metrics.Sink, outputBucket, workDir string) *Pipeline {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Pipeline{
		Store:        store,
		Engine:       engine,
		Metrics:      sink,
		OutputBucket: outputBucket,
		WorkDir:      workDir,
	}
}

// scratch creates a directory no other invocation shares.
func (p *Pipeline) scratch() (string, func(), error) {
	dir := filepath.Join(p.WorkDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	cleanup := func() {
		if !p.KeepScratch {
			os.RemoveAll(dir)
		}
	}
	return dir, cleanup, nil
}

func (p *Pipeline) put(ctx context.Context, name string, value float64, unit metrics.Unit) {
	metrics.Put(ctx, p.Metrics, name, value, unit)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// localExt keeps the source container extension for the scratch copy.
func localExt(key string) string {
	if ext := path.Ext(key); ext != "" {
		return ext
	}
	return keys.SegmentExt
}
