package pipeline

import (
	"errors"
	"fmt"
)

// TransferError is a failed download or upload. Always fatal for the stage.
type TransferError struct {
	Op     string // "download", "upload"
	Bucket string
	Key    string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s/%s failed: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// TranscodeError is a failed ffmpeg invocation. Never retried.
type TranscodeError struct {
	Step string
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s failed: %v", e.Step, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// ConfigError means the invocation was rejected before any storage access.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Msg }

var errNoSegments = errors.New("ffmpeg produced no segments")

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
