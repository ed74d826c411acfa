package kilnlog

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// BlobStore defines the interface for photo byte storage. Implementations can
// use the local filesystem, S3, GCS, or any other blob backend.
//
// Implementations must classify connectivity faults as ErrStoreUnavailable and
// any other fault as ErrUpstream.
type BlobStore interface {
	// Put stores the photo bytes at the path derived from the item and photo
	// ids (see BlobPath) and returns that path.
	Put(ctx context.Context, itemID, photoID string, content io.Reader, contentType, fileName string) (string, error)

	// Delete removes one blob. Deleting an absent blob is a success
	// (idempotent).
	Delete(ctx context.Context, blobPath string) error

	// DeleteMany removes every listed blob, attempting all paths even after a
	// failure. A single failed path fails the whole call; absent blobs count
	// as deleted.
	DeleteMany(ctx context.Context, blobPaths []string) error

	// SignedURL returns a time-limited read-only URL for the blob, or an empty
	// string when the blob does not exist or URL generation transiently fails.
	// Callers must treat an empty URL as "no preview available now", never as
	// a hard failure.
	SignedURL(ctx context.Context, blobPath string, ttl time.Duration) (string, error)
}

// BlobPath derives the deterministic blob-store path for a photo:
// items/{itemID}/{photoID}{.ext}, where .ext is the lowercased extension of
// the original file name if present, else empty.
func BlobPath(itemID, photoID, fileName string) string {
	ext := ""
	if idx := strings.LastIndexByte(fileName, '.'); idx >= 0 && idx < len(fileName)-1 {
		ext = "." + strings.ToLower(fileName[idx+1:])
	}
	return "items/" + itemID + "/" + photoID + ext
}

// IsValidBlobPath validates a client-supplied blob path before it is resolved
// against storage. It rejects empty, absolute, traversal, empty-segment, and
// control-character paths.
func IsValidBlobPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
