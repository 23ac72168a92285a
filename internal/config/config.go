package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StorageS3    = "s3"
	StorageLocal = "local"

	MetricsCloudWatch = "cloudwatch"
	MetricsLog        = "log"
	MetricsNone       = "none"
)

type Config struct {
	Mode         string `yaml:"mode"`
	SourceBucket string `yaml:"sourceBucket"`
	SourceKey    string `yaml:"sourceKey"`
	ManifestKey  string `yaml:"manifestKey"`

	// OutputBucket holds unprocessed/, processed/ and final/ for split and merge.
	OutputBucket string `yaml:"outputBucket"`

	Storage   string `yaml:"storage"`
	LocalRoot string `yaml:"localRoot"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`

	Metrics          string `yaml:"metrics"`
	MetricsNamespace string `yaml:"metricsNamespace"`

	FFmpegBin   string `yaml:"ffmpegBin"`
	WorkDir     string `yaml:"workDir"`
	KeepScratch bool   `yaml:"keepScratch"`
	LogFile     string `yaml:"logFile"`

	WatchBuckets   []string `yaml:"watchBuckets"`
	Keywords       []string `yaml:"keywords"`
	IgnoreKeywords []string `yaml:"ignoreKeywords"`
}

// StageContext is the per-invocation input every stage receives.
type StageContext struct {
	Mode        string
	Bucket      string
	Key         string
	ManifestKey string
}

func NewDefault() *Config {
	return &Config{
		Mode:             "SPLIT",
		OutputBucket:     "video-output-processed-kno",
		Storage:          StorageS3,
		LocalRoot:        filepath.Join(os.TempDir(), "seg-transcode-store"),
		Metrics:          MetricsCloudWatch,
		MetricsNamespace: "VideoPipeline",
		FFmpegBin:        "ffmpeg",
		WorkDir:          filepath.Join(os.TempDir(), "seg-transcode"),
	}
}

// DefaultPath is ~/.config/seg-transcode/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "seg-transcode", "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty) and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, names ...string) {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Mode, "MODE")
	set(&c.SourceBucket, "S3_BUCKET")
	set(&c.SourceKey, "S3_KEY")
	set(&c.ManifestKey, "SEGMENT_METADATA_KEY", "SEGMENT_JSON")
	set(&c.OutputBucket, "PROCESSED_BUCKET")
	set(&c.Storage, "STORAGE_BACKEND")
	set(&c.LocalRoot, "LOCAL_STORAGE_ROOT")
	set(&c.Region, "AWS_REGION")
	set(&c.Endpoint, "S3_ENDPOINT")
	set(&c.Metrics, "METRICS_BACKEND")
	set(&c.MetricsNamespace, "METRICS_NAMESPACE")
	set(&c.FFmpegBin, "FFMPEG_BIN")
	set(&c.WorkDir, "WORK_DIR")
}

func (c *Config) StageContext() StageContext {
	return StageContext{
		Mode:        strings.ToUpper(strings.TrimSpace(c.Mode)),
		Bucket:      c.SourceBucket,
		Key:         c.SourceKey,
		ManifestKey: c.ManifestKey,
	}
}
