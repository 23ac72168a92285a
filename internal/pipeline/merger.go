package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/convert"
	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/logger"
	"github.com/mt4110/seg-transcode/internal/manifest"
	"github.com/mt4110/seg-transcode/internal/metrics"
)

// ManifestKey picks the manifest for a merge: the explicit key, else the one derived from the
// source key's video id.
func ManifestKey(sc config.StageContext) (string, error) {
	if sc.ManifestKey != "" {
		return sc.ManifestKey, nil
	}
	if sc.Key == "" {
		return "", &ConfigError{Msg: "merge needs a manifest key or a source key"}
	}
	return keys.Manifest(keys.VideoID(sc.Key)), nil
}

// CompressionRatio is final size over the summed segment size, in MB, with the denominator
// floored at 1 MB.
func CompressionRatio(finalBytes, segmentBytes int64) float64 {
	return metrics.Round2(metrics.MB(finalBytes) / max(1, metrics.MB(segmentBytes)))
}

// Merge concatenates every processed segment listed by the manifest, in manifest order, and
// uploads final/<video-id>.mp4. Any missing segment aborts before ffmpeg runs.
func (p *Pipeline) Merge(ctx context.Context, sc config.StageContext) (string, error) {
	start := time.Now()

	metaKey, err := ManifestKey(sc)
	if err != nil {
		return "", err
	}
	logger.Event("Merge started", logger.Fields{"metadata_key": metaKey})

	data, err := p.Store.Get(ctx, p.OutputBucket, metaKey)
	if err != nil {
		logger.Error("Merge metadata error", err, logger.Fields{"key": metaKey})
		return "", &TransferError{Op: "download", Bucket: p.OutputBucket, Key: metaKey, Err: err}
	}
	m, err := manifest.Parse(data, metaKey)
	if err != nil {
		logger.Error("Merge metadata error", err, logger.Fields{"key": metaKey})
		return "", fmt.Errorf("manifest %s: %w", metaKey, err)
	}

	segBucket := m.Bucket
	if segBucket == "" {
		segBucket = p.OutputBucket
	}

	work, cleanup, err := p.scratch()
	if err != nil {
		return "", err
	}
	defer cleanup()

	locals := make([]string, 0, len(m.Segments))
	var segmentBytes int64
	for i, processedKey := range m.ProcessedKeys() {
		local := filepath.Join(work, fmt.Sprintf("seg_%03d%s", i, keys.SegmentExt))
		n, err := p.Store.Download(ctx, segBucket, processedKey, local)
		if err != nil {
			logger.Error("Merge download error", err, logger.Fields{"key": processedKey})
			return "", &TransferError{Op: "download", Bucket: segBucket, Key: processedKey, Err: err}
		}
		segmentBytes += n
		locals = append(locals, local)
	}

	listFile := filepath.Join(work, "segments.txt")
	if err := convert.WriteConcatList(listFile, locals); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	merged := filepath.Join(work, "merged"+keys.SegmentExt)
	if err := p.Engine.Concat(ctx, listFile, merged, convert.TargetProfile); err != nil {
		logger.Error("Merge transcode error", err, logger.Fields{"video_id": m.VideoID})
		return "", &TranscodeError{Step: "concat", Err: err}
	}

	finalBytes := fileSize(merged)
	finalKey := keys.Final(m.VideoID)
	if err := p.Store.Upload(ctx, p.OutputBucket, finalKey, merged); err != nil {
		logger.Error("Merge upload error", err, logger.Fields{"key": finalKey})
		return "", &TransferError{Op: "upload", Bucket: p.OutputBucket, Key: finalKey, Err: err}
	}

	elapsed := time.Since(start).Seconds()
	finalMB := metrics.MB(finalBytes)

	p.put(ctx, "VideosMerged", 1, metrics.Count)
	p.put(ctx, "MergeDurationSec", elapsed, metrics.Seconds)
	p.put(ctx, "FinalVideoSizeMB", finalMB, metrics.Megabytes)

	logger.Event("Merge complete", logger.Fields{
		"video_id":          m.VideoID,
		"final_key":         finalKey,
		"segments":          len(locals),
		"duration_sec":      elapsed,
		"final_size_mb":     finalMB,
		"compression_ratio": CompressionRatio(finalBytes, segmentBytes),
	})
	return finalKey, nil
}
