package split

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mt4110/seg-transcode/internal/keys"
)

const (
	// LargeInputBytes is the 500 MB threshold above which long segments are used.
	LargeInputBytes int64 = 500 * 1024 * 1024

	ShortSegmentSeconds = 60
	LongSegmentSeconds  = 300
)

// SegmentSeconds picks the segment duration for an input of size bytes.
// Larger files get fewer, longer segments to bound the segment count.
func SegmentSeconds(size int64) int {
	if size > LargeInputBytes {
		return LongSegmentSeconds
	}
	return ShortSegmentSeconds
}

// Pattern is the ffmpeg output pattern for segments written into dir.
func Pattern(dir string) string {
	return filepath.Join(dir, "segment-%03d"+keys.SegmentExt)
}

// Enumerate returns segment-000, segment-001, ... from dir, stopping at the first missing index.
func Enumerate(dir string) ([]string, error) {
	var files []string
	for i := 0; ; i++ {
		p := filepath.Join(dir, keys.SegmentName(i))
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat segment %d: %w", i, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("segment %d is a directory: %s", i, p)
		}
		files = append(files, p)
	}
	return files, nil
}
