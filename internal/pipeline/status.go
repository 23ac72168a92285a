package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/manifest"
	"github.com/mt4110/seg-transcode/internal/storage"
)

// Report describes how far one video has progressed, as seen from storage alone.
type Report struct {
	VideoID           string
	RawSegments       int
	ManifestPresent   bool
	ManifestSegments  int
	ProcessedSegments int
	// Missing lists processed keys the manifest expects but storage lacks.
	Missing      []string
	FinalPresent bool
	FinalSize    int64
}

// Complete reports whether the final artifact exists.
func (r *Report) Complete() bool { return r.FinalPresent }

// ReadyToMerge reports whether every manifest segment has a processed counterpart.
func (r *Report) ReadyToMerge() bool {
	return r.ManifestPresent && len(r.Missing) == 0
}

func (p *Pipeline) Status(ctx context.Context, videoID string) (*Report, error) {
	r := &Report{VideoID: videoID}

	raw, err := p.Store.List(ctx, p.OutputBucket, keys.RawPrefix(videoID))
	if err != nil {
		return nil, err
	}
	for _, o := range raw {
		if strings.HasSuffix(o.Key, keys.SegmentExt) {
			r.RawSegments++
		}
	}

	processedPrefix := keys.Processed(keys.RawPrefix(videoID))
	processed, err := p.Store.List(ctx, p.OutputBucket, processedPrefix)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(processed))
	for _, o := range processed {
		have[o.Key] = true
	}
	r.ProcessedSegments = len(processed)

	data, err := p.Store.Get(ctx, p.OutputBucket, keys.Manifest(videoID))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		m, err := manifest.Parse(data, keys.Manifest(videoID))
		if err != nil {
			return nil, err
		}
		r.ManifestPresent = true
		r.ManifestSegments = len(m.Segments)
		for _, k := range m.ProcessedKeys() {
			if !have[k] {
				r.Missing = append(r.Missing, k)
			}
		}
	}

	finals, err := p.Store.List(ctx, p.OutputBucket, keys.Final(videoID))
	if err != nil {
		return nil, err
	}
	for _, o := range finals {
		if o.Key == keys.Final(videoID) {
			r.FinalPresent = true
			r.FinalSize = o.Size
		}
	}
	return r, nil
}
