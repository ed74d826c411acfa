package kilnlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service coordinates the document store and the blob store. Item-only
// operations pass straight through to the ItemRepo; photo operations are
// multi-step sagas sequencing ItemRepo, BlobStore, and PhotoCollection calls
// in a fixed order with explicit compensation on partial failure.
type Service struct {
	repo    ItemRepo
	blobs   BlobStore
	photos  *PhotoCollection
	urlTTL  time.Duration
	compTTL time.Duration
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	SignedURLTTL        time.Duration // Lifetime of generated read URLs (default: 15m)
	CompensationTimeout time.Duration // Timeout for saga compensations (default: 30s)
}

func NewService(repo ItemRepo, blobs BlobStore, cfg ServiceConfig) (*Service, error) {
	if repo == nil || blobs == nil {
		return nil, fmt.Errorf("new service: repo and blob store are required")
	}
	urlTTL := cfg.SignedURLTTL
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	compTTL := cfg.CompensationTimeout
	if compTTL <= 0 {
		compTTL = 30 * time.Second
	}
	return &Service{
		repo:    repo,
		blobs:   blobs,
		photos:  NewPhotoCollection(repo),
		urlTTL:  urlTTL,
		compTTL: compTTL,
	}, nil
}

// CreateItem validates the caller-supplied fields and persists a new item
// owned by the identity, with an empty photo list.
func (s *Service) CreateItem(ctx context.Context, fields ItemFields, ident Identity) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}

	if fields.Name == "" {
		return Item{}, fmt.Errorf("create item: %w: name cannot be empty", ErrValidation)
	}
	if fields.ClayType == "" {
		return Item{}, fmt.Errorf("create item: %w: clay type cannot be empty", ErrValidation)
	}
	if fields.Location == "" {
		return Item{}, fmt.Errorf("create item: %w: location cannot be empty", ErrValidation)
	}
	if fields.Status == "" {
		fields.Status = StatusGreenware
	}
	if !fields.Status.IsValid() {
		return Item{}, fmt.Errorf("create item: %w: invalid status %q", ErrValidation, fields.Status)
	}
	if fields.CreatedAt.IsZero() {
		fields.CreatedAt = time.Now().UTC()
	}

	item, err := s.repo.Create(ctx, fields, ident)
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}

	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id string, ident Identity) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}

	item, err := s.repo.Get(ctx, id, ident)
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

func (s *Service) ListItems(ctx context.Context, ident Identity) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items, err := s.repo.List(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// UpdateItem applies a partial metadata patch. Fields absent from the patch
// are left untouched; CreatedAt patches re-normalize to UTC and re-derive the
// stored timezone identifier.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch, ident Identity) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}

	if patch.Status != nil && !patch.Status.IsValid() {
		return Item{}, fmt.Errorf("update item: %w: invalid status %q", ErrValidation, *patch.Status)
	}

	item, err := s.repo.Update(ctx, id, patch, ident)
	if err != nil {
		return Item{}, fmt.Errorf("update item %s: %w", id, err)
	}

	return item, nil
}

// DeleteItem removes an item and every blob its photos reference, in that
// order: blobs first so a blob-store failure leaves all metadata intact for a
// retry. A metadata-delete failure after the blobs are gone leaves orphan
// metadata pointing at deleted blobs; that state is logged as operator-visible
// and not auto-recovered.
func (s *Service) DeleteItem(ctx context.Context, id string, ident Identity) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	item, err := s.repo.Get(ctx, id, ident)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	paths := item.BlobPaths()
	if len(paths) > 0 {
		if err := s.blobs.DeleteMany(ctx, paths); err != nil {
			return fmt.Errorf("delete item %s: delete blobs: %w", id, err)
		}
	}

	if err := s.repo.Delete(ctx, id, ident); err != nil {
		slog.Error("inconsistent state: item blobs deleted but metadata removal failed",
			"item_id", id, "blob_count", len(paths), "err", err)
		return fmt.Errorf("delete item %s: metadata removal failed after blobs were deleted: %w", id, err)
	}

	return nil
}

// UploadPhoto runs the upload saga: verify the item is visible to the caller,
// store the bytes, then append the photo metadata. When the metadata append
// fails the stored blob is deleted again (best-effort, logged); the caller
// always sees the append failure, not the cleanup outcome.
//
// Returns the stored photo (carrying its primary flag) and a freshly signed
// read URL, which is empty when URL generation is unavailable.
func (s *Service) UploadPhoto(ctx context.Context, itemID string, fields PhotoFields, content io.Reader, ident Identity) (Photo, string, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, "", fmt.Errorf("upload photo: %w", err)
	}

	if fields.Stage == "" {
		return Photo{}, "", fmt.Errorf("upload photo: %w: stage cannot be empty", ErrValidation)
	}
	if !strings.HasPrefix(fields.ContentType, "image/") {
		return Photo{}, "", fmt.Errorf("upload photo: %w: unsupported content type %q", ErrValidation, fields.ContentType)
	}

	photoID := uuid.New().String()
	var blobPath string
	var stored Photo

	steps := []sagaStep{
		{
			Name: "check item",
			Run: func(ctx context.Context) error {
				_, err := s.repo.Get(ctx, itemID, ident)
				return err
			},
		},
		{
			Name: "store blob",
			Run: func(ctx context.Context) error {
				path, err := s.blobs.Put(ctx, itemID, photoID, content, fields.ContentType, fields.FileName)
				if err != nil {
					return err
				}
				blobPath = path
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.blobs.Delete(ctx, blobPath)
			},
		},
		{
			Name: "append metadata",
			Run: func(ctx context.Context) error {
				photo := Photo{
					ID:         photoID,
					Stage:      fields.Stage,
					ImageNote:  fields.ImageNote,
					FileName:   fields.FileName,
					BlobPath:   blobPath,
					UploadedAt: time.Now().UTC(),
				}
				updated, err := s.photos.Append(ctx, itemID, photo, ident)
				if err != nil {
					return err
				}
				p, ok := updated.PhotoByID(photoID)
				if !ok {
					return fmt.Errorf("photo %s missing after append: %w", photoID, ErrUpstream)
				}
				stored = p
				return nil
			},
		},
	}

	if err := runSaga(ctx, "upload photo", s.compTTL, steps); err != nil {
		return Photo{}, "", err
	}

	return stored, s.PhotoURL(ctx, stored), nil
}

// DeletePhoto removes one photo's blob, then its metadata entry. The order is
// the deliberate inverse of UploadPhoto: metadata is never deleted while the
// blob might still exist, so a blob-store failure aborts with the entry intact
// and retryable. A metadata-removal failure after the blob is gone is the
// orphan condition; it is logged as operator-visible and not auto-recovered.
func (s *Service) DeletePhoto(ctx context.Context, itemID, photoID string, ident Identity) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	item, err := s.repo.Get(ctx, itemID, ident)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	photo, ok := item.PhotoByID(photoID)
	if !ok {
		return fmt.Errorf("delete photo %s: %w", photoID, ErrNotFound)
	}

	if err := s.blobs.Delete(ctx, photo.BlobPath); err != nil {
		return fmt.Errorf("delete photo %s: delete blob: %w", photoID, err)
	}

	if _, err := s.photos.RemoveByID(ctx, itemID, photoID, ident); err != nil {
		slog.Error("inconsistent state: photo blob deleted but metadata removal failed",
			"item_id", itemID, "photo_id", photoID, "blob_path", photo.BlobPath, "err", err)
		return fmt.Errorf("delete photo %s: metadata removal failed after blob was deleted: %w", photoID, err)
	}

	return nil
}

// UpdatePhotoDetails merges a partial stage/note patch into one photo and
// returns it with a fresh signed URL. The blob store is not touched.
func (s *Service) UpdatePhotoDetails(ctx context.Context, itemID, photoID string, patch PhotoPatch, ident Identity) (Photo, string, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, "", fmt.Errorf("update photo details: %w", err)
	}

	if patch.IsEmpty() {
		return Photo{}, "", fmt.Errorf("update photo details: %w: no update data provided", ErrValidation)
	}

	photo, err := s.photos.UpdateFields(ctx, itemID, photoID, patch, ident)
	if err != nil {
		return Photo{}, "", fmt.Errorf("update photo details: %w", err)
	}

	return photo, s.PhotoURL(ctx, photo), nil
}

// SetPrimaryPhoto marks one photo as the item's primary photo; every other
// photo in the item is unmarked in the same write.
func (s *Service) SetPrimaryPhoto(ctx context.Context, itemID, photoID string, ident Identity) (Photo, string, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, "", fmt.Errorf("set primary photo: %w", err)
	}

	photo, err := s.photos.SetPrimary(ctx, itemID, photoID, ident)
	if err != nil {
		return Photo{}, "", fmt.Errorf("set primary photo: %w", err)
	}

	return photo, s.PhotoURL(ctx, photo), nil
}

// PhotoURL generates a time-limited read URL for the photo's blob. It returns
// an empty string when the blob is missing or URL generation fails; the
// failure is logged, never surfaced, because a missing preview is not an
// error condition for callers.
func (s *Service) PhotoURL(ctx context.Context, photo Photo) string {
	if photo.BlobPath == "" {
		return ""
	}

	url, err := s.blobs.SignedURL(ctx, photo.BlobPath, s.urlTTL)
	if err != nil {
		slog.Warn("signed url generation failed", "blob_path", photo.BlobPath, "err", err)
		return ""
	}
	return url
}
