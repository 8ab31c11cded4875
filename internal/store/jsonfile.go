package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document is a whole-file JSON document on disk. Every write replaces the
// entire file; a mutex serializes read-modify-write sequences so concurrent
// mutations against the same file cannot lose updates. A missing file is
// treated as not yet initialized and is created with the default content on
// first read.
type Document[T any] struct {
	path       string
	mu         sync.Mutex
	defaultVal func() T
}

// NewDocument constructs a Document at path. defaultVal produces the
// content written when the file does not exist yet.
func NewDocument[T any](path string, defaultVal func() T) *Document[T] {
	return &Document[T]{path: path, defaultVal: defaultVal}
}

// Path returns the location of the document on disk.
func (d *Document[T]) Path() string {
	return d.path
}

// Read loads the full document.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// Update applies fn to the current document content and persists the
// result, all under the document lock. When fn returns an error nothing is
// written and the error is passed through unchanged.
func (d *Document[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	value, err := d.load(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(value)
	if err != nil {
		return err
	}

	return d.save(updated)
}

func (d *Document[T]) load(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return zero, fmt.Errorf("read %s: %w", d.path, err)
		}
		value := d.defaultVal()
		if err := d.save(value); err != nil {
			return zero, err
		}
		return value, nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("parse %s: %w", d.path, err)
	}
	return value, nil
}

// save writes the document atomically: serialize to a temp file in the
// same directory, then rename over the target.
func (d *Document[T]) save(value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
