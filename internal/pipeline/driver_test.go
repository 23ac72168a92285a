package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/mt4110/seg-transcode/internal/config"
)

func TestRun_ConfigErrorsBeforeStorage(t *testing.T) {
	tests := []struct {
		name string
		sc   config.StageContext
	}{
		{"process without bucket and key", config.StageContext{Mode: ModeProcess}},
		{"process without key", config.StageContext{Mode: ModeProcess, Bucket: "b"}},
		{"split of a raw segment", config.StageContext{Mode: ModeSplit, Bucket: "b", Key: "unprocessed/v1/segment-000.mp4"}},
		{"split without key", config.StageContext{Mode: ModeSplit, Bucket: "b"}},
		{"merge without keys", config.StageContext{Mode: ModeMerge}},
		{"unknown mode", config.StageContext{Mode: "TRANSCODE", Bucket: "b", Key: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			logs := captureLog(t)

			err := h.p.Run(context.Background(), tt.sc)
			if !IsConfigError(err) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if h.store.calls != 0 {
				t.Errorf("expected no storage calls, got %d", h.store.calls)
			}
			if !strings.Contains(logs.String(), "Processor main entry") {
				t.Error("entry event must always be logged")
			}
		})
	}
}

func TestRun_Dispatch(t *testing.T) {
	h := newHarness(t)
	captureLog(t)
	ctx := context.Background()

	h.store.sparse["uploads/v5.mp4"] = 10 * mb
	if err := h.p.Run(ctx, config.StageContext{Mode: ModeSplit, Bucket: "src", Key: "uploads/v5.mp4"}); err != nil {
		t.Fatalf("split: %v", err)
	}

	for _, k := range []string{"unprocessed/v5/segment-000.mp4", "unprocessed/v5/segment-001.mp4", "unprocessed/v5/segment-002.mp4"} {
		if err := h.p.Run(ctx, config.StageContext{Mode: ModeProcess, Bucket: outBucket, Key: k}); err != nil {
			t.Fatalf("process %s: %v", k, err)
		}
	}

	if err := h.p.Run(ctx, config.StageContext{Mode: ModeMerge, Key: "uploads/v5.mp4"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	data, err := h.local.Get(ctx, outBucket, "final/v5.mp4")
	if err != nil {
		t.Fatalf("final artifact missing: %v", err)
	}
	if string(data) != "enc:raw0;enc:raw1;enc:raw2;" {
		t.Errorf("final artifact = %q", data)
	}
}

func TestRun_EmptyModeSplits(t *testing.T) {
	h := newHarness(t)
	captureLog(t)
	h.store.sparse["v6.mp4"] = mb

	if err := h.p.Run(context.Background(), config.StageContext{Bucket: "src", Key: "v6.mp4"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(h.store.puts) != 1 || h.store.puts[0] != "unprocessed/v6/segments.json" {
		t.Errorf("expected split to run, puts = %v", h.store.puts)
	}
}
