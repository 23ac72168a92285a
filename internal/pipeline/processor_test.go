package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mt4110/seg-transcode/internal/convert"
)

func TestProcess(t *testing.T) {
	h := newHarness(t)
	logs := captureLog(t)
	ctx := context.Background()
	h.local.Put(ctx, outBucket, "unprocessed/v1/segment-004.mp4", []byte("raw4"))

	outKey, err := h.p.Process(ctx, outBucket, "unprocessed/v1/segment-004.mp4")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outKey != "processed/v1/segment-004.mp4" {
		t.Errorf("output key = %s", outKey)
	}
	data, err := h.local.Get(ctx, outBucket, outKey)
	if err != nil || string(data) != "enc:raw4" {
		t.Errorf("processed object = %q, %v", data, err)
	}
	if h.engine.encodeProfile != convert.TargetProfile {
		t.Errorf("expected target profile, got %+v", h.engine.encodeProfile)
	}
	if strings.Contains(logs.String(), `"level":"warn"`) {
		t.Error("no warning expected for a raw key")
	}
	if h.sink.values["SegmentsProcessed"] != 1 {
		t.Error("SegmentsProcessed not emitted")
	}
	if _, ok := h.sink.values["SegmentSizeMB"]; !ok {
		t.Error("SegmentSizeMB not emitted")
	}
}

func TestProcess_UnconventionalKeyWarns(t *testing.T) {
	h := newHarness(t)
	logs := captureLog(t)
	ctx := context.Background()
	h.local.Put(ctx, "b", "incoming/v1/segment-000.mp4", []byte("raw"))

	outKey, err := h.p.Process(ctx, "b", "incoming/v1/segment-000.mp4")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outKey != "incoming/v1/segment-000.mp4" {
		t.Errorf("substitution must be a no-op, got %s", outKey)
	}
	out := logs.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "Process key outside unprocessed namespace") {
		t.Errorf("expected warning event, got %s", out)
	}
}

func TestProcess_DownloadError(t *testing.T) {
	h := newHarness(t)
	logs := captureLog(t)

	_, err := h.p.Process(context.Background(), outBucket, "unprocessed/v1/segment-000.mp4")
	var te *TransferError
	if !errors.As(err, &te) || te.Op != "download" {
		t.Fatalf("expected download TransferError, got %v", err)
	}
	if !strings.Contains(logs.String(), "Process download error") {
		t.Errorf("expected download error event, got %s", logs.String())
	}
}

func TestProcess_UploadError(t *testing.T) {
	h := newHarness(t)
	logs := captureLog(t)
	ctx := context.Background()
	h.local.Put(ctx, outBucket, "unprocessed/v1/segment-000.mp4", []byte("raw"))
	h.store.failUpload["processed/v1/segment-000.mp4"] = true

	_, err := h.p.Process(ctx, outBucket, "unprocessed/v1/segment-000.mp4")
	var te *TransferError
	if !errors.As(err, &te) || te.Op != "upload" || te.Key != "processed/v1/segment-000.mp4" {
		t.Fatalf("expected upload TransferError, got %v", err)
	}
	if !strings.Contains(logs.String(), "Process upload error") {
		t.Errorf("expected upload error event, got %s", logs.String())
	}
}

func TestProcess_TranscodeErrorUploadsNothing(t *testing.T) {
	h := newHarness(t)
	captureLog(t)
	ctx := context.Background()
	h.local.Put(ctx, outBucket, "unprocessed/v1/segment-000.mp4", []byte("raw"))
	h.engine.encodeErr = errors.New("exit status 1")

	_, err := h.p.Process(ctx, outBucket, "unprocessed/v1/segment-000.mp4")
	var te *TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscodeError, got %v", err)
	}
	if len(h.store.uploads) != 0 {
		t.Errorf("nothing may be uploaded, got %v", h.store.uploads)
	}
}

func TestProcess_ScratchCleanedUp(t *testing.T) {
	h := newHarness(t)
	captureLog(t)
	ctx := context.Background()
	h.local.Put(ctx, outBucket, "unprocessed/v1/segment-000.mp4", []byte("raw"))

	if _, err := h.p.Process(ctx, outBucket, "unprocessed/v1/segment-000.mp4"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	entries, _ := os.ReadDir(h.p.WorkDir)
	if len(entries) != 0 {
		t.Errorf("expected scratch to be removed, found %v", entries)
	}

	h.p.KeepScratch = true
	if _, err := h.p.Process(ctx, outBucket, "unprocessed/v1/segment-000.mp4"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(h.p.WorkDir, "*", "segment_out.mp4"))
	if len(matches) != 1 {
		t.Errorf("expected kept scratch output, got %v", matches)
	}
}
