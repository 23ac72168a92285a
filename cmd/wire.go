package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/convert"
	"github.com/mt4110/seg-transcode/internal/metrics"
	"github.com/mt4110/seg-transcode/internal/pipeline"
	"github.com/mt4110/seg-transcode/internal/storage"
)

type deps struct {
	store storage.Store
	local *storage.Local // set only for the local backend
	sink  metrics.Sink
}

func wire(ctx context.Context, c *config.Config) (*deps, error) {
	var awsCfg aws.Config
	if c.Storage == config.StorageS3 || c.Metrics == config.MetricsCloudWatch {
		var err error
		if awsCfg, err = storage.LoadAWSConfig(ctx, c.Region); err != nil {
			return nil, err
		}
	}

	d := &deps{}
	switch c.Storage {
	case config.StorageS3:
		d.store = storage.NewS3(awsCfg, c.Endpoint)
	case config.StorageLocal:
		d.local = storage.NewLocal(c.LocalRoot)
		d.store = d.local
	default:
		return nil, &pipeline.ConfigError{Msg: fmt.Sprintf("unknown storage backend: %s", c.Storage)}
	}

	switch c.Metrics {
	case config.MetricsCloudWatch:
		d.sink = metrics.NewCloudWatch(awsCfg, c.MetricsNamespace)
	case config.MetricsLog:
		d.sink = metrics.Log{}
	case config.MetricsNone, "":
		d.sink = metrics.Nop{}
	default:
		return nil, &pipeline.ConfigError{Msg: fmt.Sprintf("unknown metrics backend: %s", c.Metrics)}
	}
	return d, nil
}

func newPipeline(c *config.Config, d *deps) *pipeline.Pipeline {
	p := pipeline.New(d.store, convert.New(c.FFmpegBin), d.sink, c.OutputBucket, c.WorkDir)
	p.KeepScratch = c.KeepScratch
	return p
}

// runStage validates sc before any client is built, so configuration errors never touch storage.
func runStage(ctx context.Context, sc config.StageContext) error {
	if err := pipeline.Enter(sc); err != nil {
		return err
	}
	d, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	return newPipeline(cfg, d).Dispatch(ctx, sc)
}
