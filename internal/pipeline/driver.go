package pipeline

import (
	"context"
	"fmt"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/logger"
)

const (
	ModeSplit   = "SPLIT"
	ModeProcess = "PROCESS"
	ModeMerge   = "MERGE"
)

// Validate rejects a stage context that must not reach storage.
func Validate(sc config.StageContext) error {
	switch sc.Mode {
	case ModeSplit, "":
		if sc.Key != "" && keys.IsRaw(sc.Key) {
			return &ConfigError{Msg: fmt.Sprintf("refusing to split %s: already under %s", sc.Key, keys.RawNamespace)}
		}
		if sc.Bucket == "" || sc.Key == "" {
			return &ConfigError{Msg: "split needs both bucket and key"}
		}
	case ModeProcess:
		if sc.Bucket == "" || sc.Key == "" {
			return &ConfigError{Msg: "process needs both bucket and key"}
		}
	case ModeMerge:
		if _, err := ManifestKey(sc); err != nil {
			return err
		}
	default:
		return &ConfigError{Msg: fmt.Sprintf("unknown mode: %s", sc.Mode)}
	}
	return nil
}

// Enter logs the entry event unconditionally, then validates sc.
func Enter(sc config.StageContext) error {
	logger.Event("Processor main entry", logger.Fields{"mode": sc.Mode, "bucket": sc.Bucket, "key": sc.Key})

	if err := Validate(sc); err != nil {
		logger.Error("Processor configuration error", err, logger.Fields{"mode": sc.Mode})
		return err
	}
	return nil
}

// Run is Enter followed by Dispatch.
func (p *Pipeline) Run(ctx context.Context, sc config.StageContext) error {
	if err := Enter(sc); err != nil {
		return err
	}
	return p.Dispatch(ctx, sc)
}

// Dispatch runs the stage named by sc.Mode; an empty mode splits.
func (p *Pipeline) Dispatch(ctx context.Context, sc config.StageContext) error {
	switch sc.Mode {
	case ModeProcess:
		_, err := p.Process(ctx, sc.Bucket, sc.Key)
		return err
	case ModeMerge:
		_, err := p.Merge(ctx, sc)
		return err
	case ModeSplit, "":
		_, err := p.Split(ctx, sc.Bucket, sc.Key)
		return err
	}
	return &ConfigError{Msg: fmt.Sprintf("unknown mode: %s", sc.Mode)}
}
