package manifest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mt4110/seg-transcode/internal/keys"
)

// Manifest is the document the Splitter writes last. Segments are raw keys in playback order.
type Manifest struct {
	Segments []string `json:"segments"`
	Bucket   string   `json:"bucket"`
	Key      string   `json:"segment_metadata_key"`
	VideoID  string   `json:"video_id"`
}

func New(bucket, videoID string, segments []string) *Manifest {
	return &Manifest{
		Segments: segments,
		Bucket:   bucket,
		Key:      keys.Manifest(videoID),
		VideoID:  videoID,
	}
}

func (m *Manifest) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Parse decodes a manifest. A missing video_id is recovered from fallbackKey.
func Parse(data []byte, fallbackKey string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m.VideoID == "" {
		m.VideoID = keys.VideoIDFromManifestKey(fallbackKey)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if m.VideoID == "" {
		return errors.New("manifest has no video_id")
	}
	if len(m.Segments) == 0 {
		return errors.New("manifest lists no segments")
	}
	for i, s := range m.Segments {
		if s == "" {
			return fmt.Errorf("manifest segment %d is empty", i)
		}
	}
	return nil
}

// ProcessedKeys returns the processed counterpart of every segment, order preserved.
func (m *Manifest) ProcessedKeys() []string {
	out := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		out[i] = keys.Processed(s)
	}
	return out
}
