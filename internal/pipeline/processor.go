package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mt4110/seg-transcode/internal/convert"
	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/logger"
	"github.com/mt4110/seg-transcode/internal/metrics"
)

// Process re-encodes one raw segment and uploads it to its processed key in the same bucket.
// It returns the processed key.
func (p *Pipeline) Process(ctx context.Context, bucket, key string) (string, error) {
	start := time.Now()
	logger.Event("Process started", logger.Fields{"bucket": bucket, "key": key})

	// The namespace is only authoritative through the manifest; warn and carry on.
	if !keys.IsRaw(key) {
		logger.Warn("Process key outside unprocessed namespace", logger.Fields{"key": key, "expected_prefix": keys.RawNamespace})
	}

	work, cleanup, err := p.scratch()
	if err != nil {
		return "", err
	}
	defer cleanup()

	localIn := filepath.Join(work, "segment"+localExt(key))
	localOut := filepath.Join(work, "segment_out"+keys.SegmentExt)

	inputBytes, err := p.Store.Download(ctx, bucket, key, localIn)
	if err != nil {
		logger.Error("Process download error", err, logger.Fields{"key": key})
		return "", &TransferError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}

	outputKey := keys.Processed(key)

	if err := p.Engine.Encode(ctx, localIn, localOut, convert.TargetProfile); err != nil {
		logger.Error("Process transcode error", err, logger.Fields{"key": key})
		return "", &TranscodeError{Step: "encode", Err: err}
	}

	if err := p.Store.Upload(ctx, bucket, outputKey, localOut); err != nil {
		logger.Error("Process upload error", err, logger.Fields{"key": outputKey})
		return "", &TransferError{Op: "upload", Bucket: bucket, Key: outputKey, Err: err}
	}

	elapsed := time.Since(start).Seconds()
	outputMB := metrics.MB(fileSize(localOut))

	p.put(ctx, "SegmentsProcessed", 1, metrics.Count)
	p.put(ctx, "SegmentProcessDurationSec", elapsed, metrics.Seconds)
	p.put(ctx, "SegmentSizeMB", outputMB, metrics.Megabytes)

	logger.Event("Segment processed", logger.Fields{
		"input":          key,
		"output":         outputKey,
		"duration_sec":   elapsed,
		"size_mb":        metrics.MB(inputBytes),
		"output_size_mb": outputMB,
	})
	return outputKey, nil
}
