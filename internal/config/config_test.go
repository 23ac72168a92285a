package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.Mode != "SPLIT" {
		t.Errorf("expected default mode SPLIT, got %s", cfg.Mode)
	}
	if cfg.MetricsNamespace != "VideoPipeline" {
		t.Errorf("expected default namespace VideoPipeline, got %s", cfg.MetricsNamespace)
	}
	if cfg.Storage != StorageS3 {
		t.Errorf("expected s3 storage by default, got %s", cfg.Storage)
	}
}

func TestLoad_NoFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("FFMPEG_BIN", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FFmpegBin != "ffmpeg" {
		t.Errorf("expected default ffmpeg bin, got %s", cfg.FFmpegBin)
	}
}

func TestLoad_WithFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	configDir := filepath.Join(tempDir, ".config", "seg-transcode")
	os.MkdirAll(configDir, 0755)

	yamlContent := `
outputBucket: my-output
storage: local
localRoot: /srv/store
watchBuckets:
  - inbox
`
	os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yamlContent), 0644)
	t.Setenv("PROCESSED_BUCKET", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("LOCAL_STORAGE_ROOT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputBucket != "my-output" {
		t.Errorf("expected output bucket my-output, got %s", cfg.OutputBucket)
	}
	if cfg.Storage != StorageLocal || cfg.LocalRoot != "/srv/store" {
		t.Errorf("unexpected storage settings: %s %s", cfg.Storage, cfg.LocalRoot)
	}
	if len(cfg.WatchBuckets) != 1 || cfg.WatchBuckets[0] != "inbox" {
		t.Errorf("expected watchBuckets [inbox], got %v", cfg.WatchBuckets)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")
	os.WriteFile(path, []byte("outputBucket: from-file\nmode: merge\n"), 0644)

	t.Setenv("MODE", "")
	t.Setenv("PROCESSED_BUCKET", "from-env")
	t.Setenv("S3_KEY", "videos/v1.mp4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputBucket != "from-env" {
		t.Errorf("expected env to win, got %s", cfg.OutputBucket)
	}
	if cfg.SourceKey != "videos/v1.mp4" {
		t.Errorf("expected S3_KEY to be applied, got %s", cfg.SourceKey)
	}
	if got := cfg.StageContext().Mode; got != "MERGE" {
		t.Errorf("expected mode to be upper-cased, got %s", got)
	}
}

func TestApplyEnv_ManifestAlias(t *testing.T) {
	env := map[string]string{"SEGMENT_JSON": "unprocessed/v1/segments.json"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := NewDefault()
	cfg.ApplyEnv(lookup)
	if cfg.ManifestKey != "unprocessed/v1/segments.json" {
		t.Errorf("expected SEGMENT_JSON alias, got %q", cfg.ManifestKey)
	}

	env["SEGMENT_METADATA_KEY"] = "unprocessed/v2/segments.json"
	cfg.ApplyEnv(lookup)
	if cfg.ManifestKey != "unprocessed/v2/segments.json" {
		t.Errorf("expected SEGMENT_METADATA_KEY to take precedence, got %q", cfg.ManifestKey)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("watchBuckets: [unterminated"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected decode error")
	}
}
