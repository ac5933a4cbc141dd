package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// File stores every origin in one JSON document:
// {"<origin>": {"todos": "...", "categories": "..."}}.
// There is no caching; each call locks, reads and (for Set) rewrites the file.
type File struct {
	path string
}

// NewFile creates the parent directory of path if it does not exist.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
		}
	}
	return &File{path: path}, nil
}

// Path returns the document location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, origin, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(func(file *os.File) error {
		doc, err := readDocument(file)
		if err != nil {
			return err
		}
		value, found = doc[origin][key]
		return nil
	})
	return value, found, err
}

// Set: lock, read all, replace one entry, write all, unlock.
func (f *File) Set(_ context.Context, origin, key, value string) error {
	return f.withLock(func(file *os.File) error {
		doc, err := readDocument(file)
		if err != nil {
			return err
		}
		entries, ok := doc[origin]
		if !ok {
			entries = make(map[string]string)
			doc[origin] = entries
		}
		entries[key] = value
		return writeDocument(file, doc)
	})
}

func (f *File) withLock(fn func(*os.File) error) error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open storage file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock storage file: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return fn(file)
}

func readDocument(file *os.File) (map[string]map[string]string, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat storage file: %w", err)
	}
	doc := make(map[string]map[string]string)
	if info.Size() == 0 {
		return doc, nil
	}
	data := make([]byte, info.Size())
	if _, err := file.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode storage file: %w", err)
	}
	return doc, nil
}

func writeDocument(file *os.File, doc map[string]map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate storage file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek storage file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	return nil
}
