// Package keys holds the storage key namespace shared by every stage.
// Stages never call each other; they agree on where objects live through these functions.
package keys

import (
	"fmt"
	"path"
	"strings"
)

const (
	RawNamespace       = "unprocessed/"
	ProcessedNamespace = "processed/"
	FinalNamespace     = "final/"

	// SegmentExt is the container used for segments and the final artifact.
	SegmentExt   = ".mp4"
	ManifestName = "segments.json"
)

// VideoID derives the id from the base filename of a source key, extension stripped.
func VideoID(sourceKey string) string {
	base := path.Base(sourceKey)
	return strings.TrimSuffix(base, path.Ext(base))
}

// RawPrefix is the directory the Splitter writes segments and the manifest into.
func RawPrefix(videoID string) string {
	return RawNamespace + videoID + "/"
}

// SegmentName returns segment-000.mp4, segment-001.mp4, ...
func SegmentName(index int) string {
	return fmt.Sprintf("segment-%03d%s", index, SegmentExt)
}

func RawSegment(videoID string, index int) string {
	return RawPrefix(videoID) + SegmentName(index)
}

func Manifest(videoID string) string {
	return RawPrefix(videoID) + ManifestName
}

func Final(videoID string) string {
	return FinalNamespace + videoID + SegmentExt
}

// IsRaw reports whether key lives under the raw namespace.
func IsRaw(key string) bool {
	return strings.HasPrefix(key, RawNamespace)
}

// Processed maps a raw segment key to its processed counterpart.
// Only the first occurrence of the raw namespace token is replaced; a key without it is
// returned unchanged. The SegmentProcessor and the Merger must both go through here.
func Processed(rawKey string) string {
	return strings.Replace(rawKey, RawNamespace, ProcessedNamespace, 1)
}

// VideoIDFromManifestKey recovers the id from unprocessed/<video-id>/segments.json.
func VideoIDFromManifestKey(manifestKey string) string {
	parts := strings.Split(manifestKey, "/")
	if len(parts) >= 3 && parts[0]+"/" == RawNamespace {
		return parts[1]
	}
	return VideoID(path.Dir(manifestKey))
}
