// Package watcher triggers the split stage when a source video lands in a watched
// local-storage bucket. It only ever splits; processing and merging stay with the external invoker.
package watcher

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/pipeline"
	"github.com/mt4110/seg-transcode/internal/storage"
)

type job struct {
	bucket string
	key    string
}

type Watcher struct {
	Cfg      *config.Config
	Pipeline *pipeline.Pipeline
	Store    *storage.Local

	// Settle is how long to wait after an event before treating the file as fully written.
	Settle time.Duration

	mu      sync.Mutex
	pending map[string]bool
}

func New(cfg *config.Config, p *pipeline.Pipeline, store *storage.Local) *Watcher {
	return &Watcher{
		Cfg:      cfg,
		Pipeline: p,
		Store:    store,
		Settle:   2 * time.Second,
		pending:  make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled. Splits run one at a time in arrival order.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.Cfg.WatchBuckets) == 0 {
		return errors.New("監視対象のバケットが設定されていません")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	buckets := make(map[string]string) // dir -> bucket
	for _, b := range w.Cfg.WatchBuckets {
		dir := filepath.Join(w.Store.Root, b)
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("⚠️ ディレクトリ作成失敗 (スキップ): %s -> %v", dir, err)
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Printf("⚠️ 監視エラー (スキップ): %s -> %v", dir, err)
			continue
		}
		buckets[dir] = b
		log.Printf("監視を開始しました: %s (bucket=%s)", dir, b)
	}
	if len(buckets) == 0 {
		return errors.New("監視できるバケットがありません")
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	jobs := make(chan job, 64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-jobs:
				w.split(ctx, j)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			bucket, ok := buckets[filepath.Dir(event.Name)]
			if !ok {
				continue
			}
			if j, ok := w.accept(event, bucket); ok {
				go w.enqueue(ctx, jobs, j, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Println("監視エラー:", err)
		}
	}
}

func (w *Watcher) accept(event fsnotify.Event, bucket string) (job, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return job{}, false
	}
	fName := filepath.Base(event.Name)
	if strings.HasPrefix(fName, ".") || !isTargetVideo(fName) || !w.shouldProcess(fName) {
		return job{}, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[event.Name] {
		log.Printf("すでに処理中です: %s", event.Name)
		return job{}, false
	}
	w.pending[event.Name] = true

	log.Printf("新規ファイルを検知: %s", event.Name)
	return job{bucket: bucket, key: fName}, true
}

// enqueue waits for the file to settle before queueing it.
func (w *Watcher) enqueue(ctx context.Context, jobs chan<- job, j job, path string) {
	select {
	case <-ctx.Done():
		w.done(path)
		return
	case <-time.After(w.Settle):
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("ファイルが見つかりません (削除または移動されました): %s", path)
		w.done(path)
		return
	}

	select {
	case jobs <- j:
	case <-ctx.Done():
		w.done(path)
	}
}

func (w *Watcher) split(ctx context.Context, j job) {
	path := w.Store.Path(j.bucket, j.key)
	defer w.done(path)

	if ctx.Err() != nil {
		return
	}
	log.Printf("分割開始: %s/%s", j.bucket, j.key)
	if _, err := w.Pipeline.Split(ctx, j.bucket, j.key); err != nil {
		log.Printf("❌ 分割失敗: %s/%s -> %v", j.bucket, j.key, err)
		return
	}
	log.Printf("✅ 分割完了: %s/%s", j.bucket, j.key)
}

func (w *Watcher) done(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

func isTargetVideo(fName string) bool {
	ext := strings.ToLower(filepath.Ext(fName))
	for _, v := range []string{".mov", ".mp4", ".m4v", ".avi", ".mkv"} {
		if ext == v {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldProcess(fName string) bool {
	lowerName := strings.ToLower(fName)
	// Exclude
	for _, k := range w.Cfg.IgnoreKeywords {
		if strings.Contains(lowerName, strings.ToLower(k)) {
			log.Printf("無視キーワードに一致したためスキップ: %s", fName)
			return false
		}
	}

	// Include
	if len(w.Cfg.Keywords) > 0 {
		for _, k := range w.Cfg.Keywords {
			if strings.Contains(lowerName, strings.ToLower(k)) {
				return true
			}
		}
		log.Printf("キーワードに一致しないためスキップ: %s", fName)
		return false
	}
	return true
}
