package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects as files under a root directory and serves them through
// the API's /files route.
type LocalStore struct {
	root    string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore 创建根目录（若不存在）。
func NewLocalStore(root, publicBaseURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir storage root: %w", err)
	}
	return &LocalStore{
		root:    abs,
		baseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// Root returns the absolute root directory.
func (s *LocalStore) Root() string { return s.root }

// resolve maps an object key to a path inside root.
func (s *LocalStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Put 把 r 写入 key 对应的文件（先写临时文件再 rename）。
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (ObjectInfo, error) {
	w, err := s.NewWriter(ctx, key, contentType)
	if err != nil {
		return ObjectInfo{}, err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Abort(err)
		return ObjectInfo{}, fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: key, Size: w.Size(), ContentType: contentType}, nil
}

// NewWriter 返回写入临时文件的 ObjectWriter，Close 时 fsync 并原子替换目标文件。
func (s *LocalStore) NewWriter(ctx context.Context, key, _ string) (ObjectWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileWriter{key: key, target: target, f: f}, nil
}

type fileWriter struct {
	key     string
	target  string
	f       *os.File
	written int64
	err     error
	closed  bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.f.Write(p)
	w.written += int64(n)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *fileWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	tmp := w.f.Name()
	if w.err != nil {
		_ = w.f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write object %q: %w", w.key, w.err)
	}
	if err := w.f.Sync(); err != nil {
		w.err = err
	} else if err := w.f.Close(); err != nil {
		w.err = err
	} else if err := os.Rename(tmp, w.target); err != nil {
		w.err = err
	}
	if w.err != nil {
		_ = w.f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("commit object %q: %w", w.key, w.err)
	}
	return nil
}

func (w *fileWriter) Abort(err error) {
	if w.closed {
		return
	}
	w.closed = true
	if err == nil {
		err = errors.New("aborted")
	}
	w.err = err
	_ = w.f.Close()
	_ = os.Remove(w.f.Name())
}

func (w *fileWriter) Size() int64 { return w.written }

// Get 打开对象文件；不存在时返回的错误满足 IsNoSuchKey。
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("open object %q: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("open object %q: %w", key, fs.ErrNotExist)
	}
	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(p)),
		LastModified: st.ModTime(),
	}, nil
}

// Delete 幂等删除。
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// DeletePrefix removes the directory named by prefix. Only whole path segments are
// matched: "portfolios/1" removes "portfolios/1/..." but not "portfolios/12".
func (s *LocalStore) DeletePrefix(_ context.Context, prefix string) error {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil
	}
	p, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("delete objects under %q: %w", prefix, err)
	}
	return nil
}

// URL 返回 <public base>/files/<key>。
func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	segments := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/files/" + strings.Join(segments, "/"), nil
}
