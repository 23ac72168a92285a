package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mt4110/seg-transcode/internal/convert"
	"github.com/mt4110/seg-transcode/internal/metrics"
	"github.com/mt4110/seg-transcode/internal/storage"
)

// fakeEngine writes predictable files instead of running ffmpeg.
type fakeEngine struct {
	segments int

	segmentErr, encodeErr, concatErr error

	segmentSeconds int
	encodeProfile  convert.Profile
	concatProfile  convert.Profile
	concatList     string
	concatCalled   bool
}

func (f *fakeEngine) Segment(_ context.Context, input string, segmentSeconds int, pattern string) error {
	f.segmentSeconds = segmentSeconds
	if f.segmentErr != nil {
		return f.segmentErr
	}
	for i := 0; i < f.segments; i++ {
		if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte(fmt.Sprintf("raw%d;", i)), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeEngine) Encode(_ context.Context, input, output string, p convert.Profile) error {
	f.encodeProfile = p
	if f.encodeErr != nil {
		return f.encodeErr
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, append([]byte("enc:"), data...), 0644)
}

func (f *fakeEngine) Concat(_ context.Context, listFile, output string, p convert.Profile) error {
	f.concatCalled = true
	f.concatProfile = p
	if f.concatErr != nil {
		return f.concatErr
	}
	list, err := os.ReadFile(listFile)
	if err != nil {
		return err
	}
	f.concatList = string(list)

	var merged []byte
	sc := bufio.NewScanner(bytes.NewReader(list))
	for sc.Scan() {
		p := strings.TrimSuffix(strings.TrimPrefix(sc.Text(), "file '"), "'")
		// Resolve like the concat demuxer: relative to the list file, not the cwd.
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(listFile), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		merged = append(merged, data...)
	}
	return os.WriteFile(output, merged, 0644)
}

// recordingStore wraps a real store, records calls, and can fail or fake sizes per key.
type recordingStore struct {
	storage.Store

	mu        sync.Mutex
	calls     int
	downloads []string
	uploads   []string
	puts      []string

	failDownload map[string]bool
	failUpload   map[string]bool
	// sparse makes Download of the key create a sparse file of the given size.
	sparse map[string]int64
}

func newRecordingStore(inner storage.Store) *recordingStore {
	return &recordingStore{
		Store:        inner,
		failDownload: map[string]bool{},
		failUpload:   map[string]bool{},
		sparse:       map[string]int64{},
	}
}

func (r *recordingStore) Download(ctx context.Context, bucket, key, dest string) (int64, error) {
	r.mu.Lock()
	r.calls++
	r.downloads = append(r.downloads, key)
	r.mu.Unlock()

	if r.failDownload[key] {
		return 0, fmt.Errorf("%s/%s: %w", bucket, key, storage.ErrNotFound)
	}
	if size, ok := r.sparse[key]; ok {
		f, err := os.Create(dest)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		return size, f.Truncate(size)
	}
	return r.Store.Download(ctx, bucket, key, dest)
}

func (r *recordingStore) Upload(ctx context.Context, bucket, key, src string) error {
	r.mu.Lock()
	r.calls++
	r.uploads = append(r.uploads, key)
	r.mu.Unlock()

	if r.failUpload[key] {
		return fmt.Errorf("access denied")
	}
	return r.Store.Upload(ctx, bucket, key, src)
}

func (r *recordingStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.Store.Get(ctx, bucket, key)
}

func (r *recordingStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	r.mu.Lock()
	r.calls++
	r.puts = append(r.puts, key)
	r.mu.Unlock()
	return r.Store.Put(ctx, bucket, key, data)
}

type recordingSink struct {
	mu     sync.Mutex
	values map[string]float64
	dims   map[string]metrics.Dims
}

func newRecordingSink() *recordingSink {
	return &recordingSink{values: map[string]float64{}, dims: map[string]metrics.Dims{}}
}

func (s *recordingSink) Put(_ context.Context, name string, value float64, _ metrics.Unit, dims metrics.Dims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	s.dims[name] = dims
}

type harness struct {
	local  *storage.Local
	store  *recordingStore
	engine *fakeEngine
	sink   *recordingSink
	p      *Pipeline
}

const outBucket = "out"

func newHarness(t *testing.T) *harness {
	t.Helper()
	local := storage.NewLocal(t.TempDir())
	store := newRecordingStore(local)
	engine := &fakeEngine{segments: 3}
	sink := newRecordingSink()
	return &harness{
		local:  local,
		store:  store,
		engine: engine,
		sink:   sink,
		p:      New(store, engine, sink, outBucket, t.TempDir()),
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}
