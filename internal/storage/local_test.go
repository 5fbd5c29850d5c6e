package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Storage, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "store")
	s, err := NewLocal(root, "/static/")
	require.NoError(t, err)
	return s, root
}

func TestLocalPutGet(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "run/time_0.png", strings.NewReader("png"), PutObjectOptions{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, "run/time_0.png", info.Key)
	assert.Equal(t, int64(3), info.Size)

	b, err := os.ReadFile(filepath.Join(root, "run", "time_0.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))

	rc, info, err := s.Get(ctx, "run/time_0.png")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
	assert.Equal(t, int64(3), info.Size)

	assert.Equal(t, "/static/run/time_0.png", s.URL("run/time_0.png"))
}

func TestLocalPutOverwrites(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "a.edf", strings.NewReader("first"), PutObjectOptions{Size: -1})
	require.NoError(t, err)
	_, err = s.Put(ctx, "a.edf", strings.NewReader("second"), PutObjectOptions{Size: -1})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "a.edf"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLocalPutSizeMismatch(t *testing.T) {
	s, root := newTestStore(t)

	_, err := s.Put(context.Background(), "short.edf", strings.NewReader("abc"), PutObjectOptions{Size: 10})
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(root, "short.edf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Stat(ctx, "missing.edf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Get(ctx, "missing.edf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Put(ctx, "dir/file", strings.NewReader("x"), PutObjectOptions{Size: -1})
	require.NoError(t, err)
	_, err = s.Stat(ctx, "dir")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRejectsInvalidKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.edf", "/etc/passwd", "a/../../b", ".hidden", `a\b`} {
		_, err := s.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{Size: -1})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)

		_, err = s.Stat(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "a.edf", strings.NewReader("x"), PutObjectOptions{Size: -1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestLocalPing(t *testing.T) {
	s, root := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(root))
	assert.Error(t, s.Ping(context.Background()))
}

func TestValidKey(t *testing.T) {
	valid := []string{"a.edf", "run-1/time_0.png", "x/y/z"}
	invalid := []string{"", ".", "..", "/a", "a/", "a//b", "./a", "a/./b", "a/../b", ".put-123", "a/.b", "a\x00b"}
	for _, k := range valid {
		assert.True(t, ValidKey(k), k)
	}
	for _, k := range invalid {
		assert.False(t, ValidKey(k), k)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"recording.edf":          "recording.edf",
		"my file (1).edf":        "my_file__1_.edf",
		"../../etc/passwd":       "passwd",
		`C:\Users\eeg\night.edf`: "night.edf",
		".bashrc":                "bashrc",
		"..":                     "",
		"":                       "",
		"/":                      "",
		"???":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}
