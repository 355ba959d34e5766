package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// DiskDriver keeps objects as files below a root directory.
type DiskDriver struct {
	root string
}

func NewDiskDriver(root string) (*DiskDriver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf(errCreateRootFmt, root, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf(errCreateRootFmt, abs, err)
	}
	return &DiskDriver{root: abs}, nil
}

func (d *DiskDriver) Name() string { return DriverDisk }

// resolve maps key into the root and refuses anything that escapes it.
func (d *DiskDriver) resolve(key string) (string, error) {
	full := filepath.Join(d.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.ErrPathTraversal
	}
	return full, nil
}

func (d *DiskDriver) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	full, err := d.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}

	// Write to a temp file first so readers never observe a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}
	return nil
}

func (d *DiskDriver) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errOpenObjectFmt, key, err)
	}
	return f, nil
}

func (d *DiskDriver) Delete(_ context.Context, key string) error {
	full, err := d.resolve(key)
	if err != nil {
		return err
	}

	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf(errDeleteObjectFmt, key, err)
	}
	return nil
}

func (d *DiskDriver) Exists(_ context.Context, key string) (bool, error) {
	full, err := d.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(errStatObjectFmt, key, err)
	}
	return true, nil
}
