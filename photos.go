package kilnlog

import (
	"context"
	"fmt"
)

// PhotoCollection mutates the embedded photo list of an item while preserving
// every other entry exactly. All four operations are read-modify-write: fetch
// the current item, compute a new list, and write the whole list back through
// ItemRepo.ReplacePhotos. Two concurrent mutations on the same item can race
// (classic lost update); nothing here serializes them.
//
// PhotoCollection is also the sole writer of the IsPrimary flag: Append
// auto-marks the first photo of an item as primary, and SetPrimary reassigns
// it. No other code path may toggle the flag.
type PhotoCollection struct {
	repo ItemRepo
}

// NewPhotoCollection creates a PhotoCollection over the given repository.
func NewPhotoCollection(repo ItemRepo) *PhotoCollection {
	return &PhotoCollection{repo: repo}
}

// Append adds one photo to the item's list. When the item currently has zero
// photos the new entry is marked primary; otherwise it is appended non-primary
// and the existing primary assignment is left untouched.
func (c *PhotoCollection) Append(ctx context.Context, itemID string, photo Photo, ident Identity) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("append photo: %w", err)
	}

	item, err := c.repo.Get(ctx, itemID, ident)
	if err != nil {
		return Item{}, fmt.Errorf("append photo: %w", err)
	}

	photo.IsPrimary = len(item.Photos) == 0

	updated, err := c.repo.ReplacePhotos(ctx, itemID, append(copyPhotos(item.Photos), photo), ident)
	if err != nil {
		return Item{}, fmt.Errorf("append photo %s: %w", photo.ID, err)
	}

	return updated, nil
}

// RemoveByID filters the photo with the given id out of the item's list,
// matching by id equality rather than full-value equality. Removing an absent
// id is a no-op returning the current item unchanged.
func (c *PhotoCollection) RemoveByID(ctx context.Context, itemID, photoID string, ident Identity) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("remove photo: %w", err)
	}

	item, err := c.repo.Get(ctx, itemID, ident)
	if err != nil {
		return Item{}, fmt.Errorf("remove photo: %w", err)
	}

	filtered, found := filterPhotoByID(item.Photos, photoID)
	if !found {
		return item, nil
	}

	updated, err := c.repo.ReplacePhotos(ctx, itemID, filtered, ident)
	if err != nil {
		return Item{}, fmt.Errorf("remove photo %s: %w", photoID, err)
	}

	return updated, nil
}

// UpdateFields merges a partial patch into the addressed photo, leaving every
// other entry untouched. Returns ErrNotFound when the photo id is absent.
func (c *PhotoCollection) UpdateFields(ctx context.Context, itemID, photoID string, patch PhotoPatch, ident Identity) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("update photo: %w", err)
	}

	item, err := c.repo.Get(ctx, itemID, ident)
	if err != nil {
		return Photo{}, fmt.Errorf("update photo: %w", err)
	}

	photos := copyPhotos(item.Photos)
	idx := indexOfPhoto(photos, photoID)
	if idx < 0 {
		return Photo{}, fmt.Errorf("update photo %s: %w", photoID, ErrNotFound)
	}
	photos[idx] = patch.apply(photos[idx])

	if _, err := c.repo.ReplacePhotos(ctx, itemID, photos, ident); err != nil {
		return Photo{}, fmt.Errorf("update photo %s: %w", photoID, err)
	}

	return photos[idx], nil
}

// SetPrimary marks the addressed photo as the item's primary photo and clears
// the flag on every other entry. Returns ErrNotFound when the photo id is
// absent.
func (c *PhotoCollection) SetPrimary(ctx context.Context, itemID, photoID string, ident Identity) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("set primary photo: %w", err)
	}

	item, err := c.repo.Get(ctx, itemID, ident)
	if err != nil {
		return Photo{}, fmt.Errorf("set primary photo: %w", err)
	}

	photos := copyPhotos(item.Photos)
	idx := indexOfPhoto(photos, photoID)
	if idx < 0 {
		return Photo{}, fmt.Errorf("set primary photo %s: %w", photoID, ErrNotFound)
	}
	for i := range photos {
		photos[i].IsPrimary = i == idx
	}

	if _, err := c.repo.ReplacePhotos(ctx, itemID, photos, ident); err != nil {
		return Photo{}, fmt.Errorf("set primary photo %s: %w", photoID, err)
	}

	return photos[idx], nil
}

// AssertPrimaryInvariant checks that at most one photo in the list is marked
// primary. It returns ErrInvariant when the list is in a state the collection
// manager should never produce.
func AssertPrimaryInvariant(photos []Photo) error {
	if n := countPrimary(photos); n > 1 {
		return fmt.Errorf("%d photos marked primary: %w", n, ErrInvariant)
	}
	return nil
}

func countPrimary(photos []Photo) int {
	n := 0
	for _, p := range photos {
		if p.IsPrimary {
			n++
		}
	}
	return n
}

func copyPhotos(photos []Photo) []Photo {
	out := make([]Photo, len(photos))
	copy(out, photos)
	return out
}

func indexOfPhoto(photos []Photo, photoID string) int {
	for i, p := range photos {
		if p.ID == photoID {
			return i
		}
	}
	return -1
}

func filterPhotoByID(photos []Photo, photoID string) ([]Photo, bool) {
	filtered := make([]Photo, 0, len(photos))
	found := false
	for _, p := range photos {
		if p.ID == photoID {
			found = true
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, found
}
