package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Local maps bucket/key onto <root>/<bucket>/<key>. Used for development and tests.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Path returns the filesystem location of an object.
func (l *Local) Path(bucket, key string) string {
	return filepath.Join(l.Root, bucket, filepath.FromSlash(key))
}

func (l *Local) Download(_ context.Context, bucket, key, dest string) (int64, error) {
	src, err := os.Open(l.Path(bucket, key))
	if err != nil {
		return 0, l.wrap(bucket, key, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to copy %s/%s: %w", bucket, key, err)
	}
	return n, nil
}

func (l *Local) Upload(_ context.Context, bucket, key, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dest := l.Path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	return out.Close()
}

func (l *Local) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(bucket, key))
	if err != nil {
		return nil, l.wrap(bucket, key, err)
	}
	return data, nil
}

func (l *Local) Put(_ context.Context, bucket, key string, data []byte) error {
	dest := l.Path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

func (l *Local) List(_ context.Context, bucket, prefix string) ([]Object, error) {
	// Glob only below the directory part of the prefix, then filter on the full prefix.
	dir := path.Dir(prefix + "x")
	base := filepath.Join(l.Root, bucket, filepath.FromSlash(dir))
	if _, err := os.Stat(base); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	fsys := os.DirFS(base)
	matches, err := doublestar.Glob(fsys, "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	var out []Object
	for _, m := range matches {
		key := path.Join(dir, m)
		if dir == "." {
			key = m
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		info, err := fs.Stat(fsys, m)
		if err != nil {
			return nil, err
		}
		out = append(out, Object{Key: key, Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (l *Local) wrap(bucket, key string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return fmt.Errorf("%s/%s: %w", bucket, key, err)
}
