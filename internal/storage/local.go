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
	"strings"
)

// localStorage implements Storage on a directory of the local filesystem.
// It is safe for concurrent use by multiple goroutines.
type localStorage struct {
	root    string
	baseURL string
}

// NewLocal creates a filesystem store rooted at root, creating the directory if missing.
// Objects are served under baseURL, e.g. "/static".
func NewLocal(root, baseURL string) (Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStorage) path(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes to a temporary file next to the target and renames it into place, so readers
// never observe a partial object.
func (s *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	dst, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("write object %s: %w", key, err)
	}
	if opt.Size >= 0 && n != opt.Size {
		return ObjectInfo{}, fmt.Errorf("write object %s: wrote %d bytes, expected %d", key, n, opt.Size)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return ObjectInfo{}, fmt.Errorf("chmod object %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return ObjectInfo{}, fmt.Errorf("commit object %s: %w", key, err)
	}
	return s.Stat(ctx, key)
}

// Get opens an object for reading. The caller must close the returned reader.
func (s *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	p, _ := s.path(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, ObjectInfo{}, wrapFSError(key, err)
	}
	return f, info, nil
}

// Stat returns object info. Directories are not objects.
func (s *localStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, wrapFSError(key, err)
	}
	if st.IsDir() {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return ObjectInfo{Key: key, Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (s *localStorage) URL(key string) string {
	return s.baseURL + "/" + key
}

// Ping checks that the root still exists and is a directory.
func (s *localStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	return nil
}

func wrapFSError(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// ValidKey reports whether key is a clean, relative, slash-separated path that stays
// inside the store root.
func ValidKey(key string) bool {
	if key == "" || key == "." || strings.ContainsAny(key, "\\\x00") {
		return false
	}
	if path.IsAbs(key) || path.Clean(key) != key {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}

// SanitizeFilename reduces a client-supplied filename to a single safe path segment.
// Directory components are dropped and characters outside [A-Za-z0-9._-] become '_'.
// It returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if strings.Trim(out, "_") == "" {
		return ""
	}
	return out
}
