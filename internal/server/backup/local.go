package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mneme/internal/filex"
)

// LocalSink keeps snapshots in a directory on disk.
type LocalSink struct {
	dir string
}

// NewLocalSink creates dir if needed.
func NewLocalSink(dir string) (*LocalSink, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalSink{dir: abs}, nil
}

func (s *LocalSink) Dir() string {
	return s.dir
}

func (s *LocalSink) Put(_ context.Context, name string, data []byte) error {
	return filex.WriteAtomic(s.dir, name, data)
}

// List returns the names of regular files in the directory.
func (s *LocalSink) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *LocalSink) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
