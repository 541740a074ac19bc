package configsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: filepath.Clean(path)} }

func (f *File) Name() string { return f.path }

func (f *File) ReadAll(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return b, nil
}

// Version is the file's modification time in unix milliseconds.
func (f *File) Version(_ context.Context) string {
	st, err := os.Stat(f.path)
	if err != nil {
		return "0"
	}
	return strconv.FormatInt(st.ModTime().UnixMilli(), 10)
}

// Watch calls onChange whenever the file is written, created or replaced,
// until ctx is cancelled. The parent directory is watched so editors that
// swap files atomically are still observed.
func (f *File) Watch(ctx context.Context, log *logger.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", f.path, err)
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					onChange()
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				if log != nil {
					log.Warn("config watch error", "path", f.path, "error", werr)
				}
			}
		}
	}()
	return nil
}
