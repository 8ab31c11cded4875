package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCreatesDefaultOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	doc := NewDocument(path, func() []string { return []string{} })

	value, err := doc.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, value)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "default content must be persisted")
	assert.JSONEq(t, `[]`, string(data))
}

func TestDocumentMalformedFileSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	doc := NewDocument(path, func() []string { return nil })

	_, err := doc.Read(context.Background())
	assert.Error(t, err)

	err = doc.Update(context.Background(), func(v []string) ([]string, error) { return v, nil })
	assert.Error(t, err, "updates against a malformed file must fail, not overwrite it")
}

func TestDocumentUpdateErrorWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	doc := NewDocument(path, func() []string { return []string{"a"} })

	_, err := doc.Read(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = doc.Update(context.Background(), func(v []string) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed update must leave the file byte-for-byte unchanged")
}

func TestDocumentSerializesConcurrentUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	doc := NewDocument(path, func() []int { return nil })

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			err := doc.Update(context.Background(), func(v []int) ([]int, error) {
				return append(v, n), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	value, err := doc.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, value, writers, "no update may be lost")
}
