package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"
)

// SnapshotFile is the file name used inside the data directory.
const SnapshotFile = "claims.json"

// FileBackend stores the collection as one JSON document on local disk.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing DATA_DIR/claims.json.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{path: filepath.Join(dir, SnapshotFile)}
}

// Path returns the snapshot file path.
func (f *FileBackend) Path() string { return f.path }

// Load reads the snapshot. A missing file is an empty collection; a corrupt
// file is moved aside and also reads as empty.
func (f *FileBackend) Load(_ context.Context) (*model.Snapshot, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}

	snap, err := decodeSnapshot(b)
	if err != nil {
		quarantined, qErr := f.quarantine()
		if qErr != nil {
			return nil, fmt.Errorf("%w: move corrupt snapshot aside: %v", ErrUnavailable, qErr)
		}
		slog.Warn("corrupt snapshot, starting empty", "path", f.path, "moved_to", quarantined, "error", err)
		return model.NewSnapshot(), nil
	}
	return snap, nil
}

// Save atomically replaces the snapshot file.
func (f *FileBackend) Save(_ context.Context, snap *model.Snapshot) error {
	b, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}
	if err := atomicWrite(f.path, b); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// quarantine renames the current file to <name>.<timestamp>.corrupt.
func (f *FileBackend) quarantine() (string, error) {
	dst := fmt.Sprintf("%s.%s.corrupt", f.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(f.path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// atomicWrite writes content to a temp file in the same directory, syncs
// and validates it, keeps a .bak of the previous file and renames into place.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".claims-tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("read temp file for validation: %w", err)
	}
	if !json.Valid(written) {
		return errors.New("temp file is not valid JSON")
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
