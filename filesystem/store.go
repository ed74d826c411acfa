// Package filesystem provides a local blob-store backend for kilnlog photo
// bytes. Writes are atomic (temp file then rename), deletes are idempotent,
// and read URLs are HMAC-signed with a configurable lifetime, served back
// through the HTTP layer's blob route.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilnlog/kilnlog"
)

// Store provides blob operations on a sandboxed directory root.
type Store struct {
	root    *os.Root
	signer  *kilnlog.URLSigner
	baseURL string
}

// NewBlobStore creates a Store rooted at the given directory. The root
// provides sandboxed file operations preventing path traversal. Signed URLs
// are issued as baseURL + "/blobs/" + path with the signer's query string.
func NewBlobStore(root *os.Root, signer *kilnlog.URLSigner, baseURL string) *Store {
	return &Store{
		root:    root,
		signer:  signer,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Put atomically writes the photo bytes to the deterministic blob path for
// the item/photo pair and returns that path.
func (s *Store) Put(ctx context.Context, itemID, photoID string, content io.Reader, contentType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := kilnlog.BlobPath(itemID, photoID, fileName)

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return "", fmt.Errorf("could not open temp file: %w", kilnlog.ErrUpstream)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return "", fmt.Errorf("could not copy blob contents: %w", classify(err))
	}

	if err := t.Sync(); err != nil {
		return "", fmt.Errorf("could not sync written blob: %w", kilnlog.ErrUpstream)
	}

	destDir := filepath.Dir(path)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return "", fmt.Errorf("could not create intermediate directories: %w", kilnlog.ErrUpstream)
		}
	}

	if renameErr := s.root.Rename(tmpFile, path); renameErr != nil {
		return "", fmt.Errorf("failed to rename blob: %w", kilnlog.ErrUpstream)
	}

	success = true
	return path, nil
}

// Delete removes one blob. An already-absent blob is a success.
func (s *Store) Delete(ctx context.Context, blobPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(blobPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete blob %s: %w", blobPath, kilnlog.ErrUpstream)
	}
	return nil
}

// DeleteMany removes every listed blob, attempting all paths even after a
// failure. One failed path fails the whole call.
func (s *Store) DeleteMany(ctx context.Context, blobPaths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var firstErr error
	for _, path := range blobPaths {
		if err := s.Delete(ctx, path); err != nil {
			slog.Error("failed to delete blob during batch delete", "blob_path", path, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SignedURL returns a time-limited read URL for the blob, or an empty string
// when the blob does not exist.
func (s *Store) SignedURL(ctx context.Context, blobPath string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := s.root.Stat(blobPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("could not stat blob %s: %w", blobPath, kilnlog.ErrUpstream)
	}

	query, err := s.signer.Sign(blobPath, ttl)
	if err != nil {
		return "", fmt.Errorf("sign blob url: %w", err)
	}

	return s.baseURL + "/blobs/" + blobPath + "?" + query, nil
}

// Open opens a blob for reading. Returns kilnlog.ErrNotFound if it does not
// exist. Used by the HTTP layer to serve signed-URL requests.
func (s *Store) Open(ctx context.Context, blobPath string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(blobPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kilnlog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", kilnlog.ErrUpstream)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return kilnlog.ErrUpstream
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
