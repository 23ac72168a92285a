package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/logger"
	"github.com/mt4110/seg-transcode/internal/manifest"
	"github.com/mt4110/seg-transcode/internal/metrics"
	"github.com/mt4110/seg-transcode/internal/split"
)

// Split downloads the source, cuts it into stream-copied segments, uploads them under
// unprocessed/<video-id>/ and writes the manifest last. Without a manifest the run is incomplete.
func (p *Pipeline) Split(ctx context.Context, bucket, key string) (*manifest.Manifest, error) {
	videoID := keys.VideoID(key)
	start := time.Now()
	logger.Event("Split started", logger.Fields{"video_id": videoID, "bucket": bucket})

	work, cleanup, err := p.scratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	localInput := filepath.Join(work, "input"+localExt(key))
	inputBytes, err := p.Store.Download(ctx, bucket, key, localInput)
	if err != nil {
		logger.Error("Split download error", err, logger.Fields{"key": key})
		return nil, &TransferError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	inputMB := metrics.MB(inputBytes)
	p.Metrics.Put(ctx, "InputVideoSizeMB", inputMB, metrics.Megabytes, metrics.Dims{"SizeBucket": metrics.SizeBucket(inputBytes)})

	segmentSeconds := split.SegmentSeconds(inputBytes)

	segDir := filepath.Join(work, "segments")
	if err := os.MkdirAll(segDir, 0755); err != nil {
		return nil, err
	}
	if err := p.Engine.Segment(ctx, localInput, segmentSeconds, split.Pattern(segDir)); err != nil {
		logger.Error("Split transcode error", err, logger.Fields{"video_id": videoID})
		return nil, &TranscodeError{Step: "segment", Err: err}
	}

	files, err := split.Enumerate(segDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Error("Split transcode error", errNoSegments, logger.Fields{"video_id": videoID})
		return nil, &TranscodeError{Step: "segment", Err: errNoSegments}
	}

	segmentKeys := make([]string, 0, len(files))
	var totalSegBytes int64
	for i, f := range files {
		segKey := keys.RawSegment(videoID, i)
		if err := p.Store.Upload(ctx, p.OutputBucket, segKey, f); err != nil {
			logger.Error("Split upload error", err, logger.Fields{"key": segKey})
			return nil, &TransferError{Op: "upload", Bucket: p.OutputBucket, Key: segKey, Err: err}
		}
		segmentKeys = append(segmentKeys, segKey)
		totalSegBytes += fileSize(f)
	}

	m := manifest.New(p.OutputBucket, videoID, segmentKeys)
	data, err := m.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := p.Store.Put(ctx, p.OutputBucket, m.Key, data); err != nil {
		logger.Error("Split upload error", err, logger.Fields{"key": m.Key})
		return nil, &TransferError{Op: "upload", Bucket: p.OutputBucket, Key: m.Key, Err: err}
	}

	elapsed := time.Since(start).Seconds()
	throughput := 0.0
	if elapsed > 0 {
		throughput = inputMB / elapsed
	}
	totalSegMB := metrics.MB(totalSegBytes)

	p.put(ctx, "VideoSplits", 1, metrics.Count)
	p.put(ctx, "SegmentsGenerated", float64(len(segmentKeys)), metrics.Count)
	p.put(ctx, "SplitDurationSec", elapsed, metrics.Seconds)
	p.put(ctx, "SplitThroughputMBps", throughput, metrics.MegabytesSec)
	p.put(ctx, "TotalSegmentSizeMB", totalSegMB, metrics.Megabytes)

	logger.Event("Split complete", logger.Fields{
		"video_id":          videoID,
		"segments":          len(segmentKeys),
		"segment_time":      segmentSeconds,
		"duration_sec":      elapsed,
		"input_size_mb":     inputMB,
		"total_seg_size_mb": totalSegMB,
	})
	return m, nil
}
