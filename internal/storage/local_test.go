package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocal_PutGetList(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(t.TempDir())

	for _, k := range []string{
		"unprocessed/v1/segment-001.mp4",
		"unprocessed/v1/segment-000.mp4",
		"unprocessed/v1/segments.json",
		"unprocessed/v10/segment-000.mp4",
		"processed/v1/segment-000.mp4",
	} {
		if err := l.Put(ctx, "out", k, []byte(k)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	data, err := l.Get(ctx, "out", "unprocessed/v1/segments.json")
	if err != nil || string(data) != "unprocessed/v1/segments.json" {
		t.Fatalf("Get = %q, %v", data, err)
	}

	objs, err := l.List(ctx, "out", "unprocessed/v1/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"unprocessed/v1/segment-000.mp4", "unprocessed/v1/segment-001.mp4", "unprocessed/v1/segments.json"}
	if len(objs) != len(want) {
		t.Fatalf("List = %v, want %v", objs, want)
	}
	for i, o := range objs {
		if o.Key != want[i] {
			t.Errorf("objs[%d] = %s, want %s", i, o.Key, want[i])
		}
		if o.Size != int64(len(want[i])) {
			t.Errorf("objs[%d] size = %d", i, o.Size)
		}
	}

	// A partial path component prefix must still match only by prefix.
	objs, err = l.List(ctx, "out", "unprocessed/v1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objs) != 4 {
		t.Errorf("expected v1 and v10 objects, got %v", objs)
	}
}

func TestLocal_ListMissingPrefix(t *testing.T) {
	objs, err := NewLocal(t.TempDir()).List(context.Background(), "out", "final/")
	if err != nil || len(objs) != 0 {
		t.Errorf("expected empty list, got %v, %v", objs, err)
	}
}

func TestLocal_UploadDownload(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(t.TempDir())
	work := t.TempDir()

	src := filepath.Join(work, "segment.mp4")
	os.WriteFile(src, []byte("payload"), 0644)

	if err := l.Upload(ctx, "b", "processed/v1/segment-000.mp4", src); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	dest := filepath.Join(work, "back.mp4")
	n, err := l.Download(ctx, "b", "processed/v1/segment-000.mp4", dest)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7 bytes, got %d", n)
	}
	if data, _ := os.ReadFile(dest); string(data) != "payload" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestLocal_NotFound(t *testing.T) {
	l := NewLocal(t.TempDir())
	_, err := l.Download(context.Background(), "b", "missing.mp4", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.Get(context.Background(), "b", "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	if contentType("final/v1.mp4") != "video/mp4" {
		t.Error("mp4")
	}
	if contentType("unprocessed/v1/segments.json") != "application/json" {
		t.Error("json")
	}
	if contentType("x.bin") != "application/octet-stream" {
		t.Error("default")
	}
}
