// Package preflight checks the environment a stage needs: the ffmpeg binary, a writable
// scratch directory, and a reachable output bucket.
package preflight

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/keys"
	"github.com/mt4110/seg-transcode/internal/storage"
)

type Result struct {
	Name   string
	Passed bool
	Detail string
}

func CheckFFmpeg(ctx context.Context, bin string) Result {
	const name = "ffmpeg"
	path, err := exec.LookPath(bin)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s が見つかりません", bin)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(checkCtx, path, "-version").Output()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s -version failed (%v)", path, err)}
	}
	first := bufio.NewScanner(bytes.NewReader(out))
	first.Scan()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, first.Text())}
}

// CheckDirectory verifies dir exists (creating it if needed) and is writable.
func CheckDirectory(name, dir string) Result {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s を作成できません (%v)", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s に書き込めません (%v)", dir, err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: dir}
}

// CheckStorage lists the final namespace of the output bucket.
func CheckStorage(ctx context.Context, store storage.Store, bucket string) Result {
	name := "storage " + bucket
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// A random prefix keeps the listing empty and cheap.
	if _, err := store.List(checkCtx, bucket, keys.FinalNamespace+uuid.NewString()); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

func RunAll(ctx context.Context, cfg *config.Config, store storage.Store) []Result {
	results := []Result{
		CheckFFmpeg(ctx, cfg.FFmpegBin),
		CheckDirectory("work dir", cfg.WorkDir),
	}
	if store != nil {
		results = append(results, CheckStorage(ctx, store, cfg.OutputBucket))
	}
	return results
}
