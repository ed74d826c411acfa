package kilnlog

import "context"

// ItemRepo defines the interface for owner-scoped item persistence in the
// document store. Implementations must classify transport faults as
// ErrStoreUnavailable and any other store fault as ErrUpstream; raw driver
// errors must never escape.
//
// Every method takes the caller Identity. Scoped identities only see their own
// documents: a lookup that hits another owner's document behaves exactly like a
// lookup of a missing id (ErrNotFound, never a forbidden-style error). Admin
// identities are unscoped.
type ItemRepo interface {
	// Create persists a new item with a freshly assigned id, an empty photo
	// list, CreatedAt normalized to UTC, and the caller's owner id attached.
	Create(ctx context.Context, fields ItemFields, ident Identity) (Item, error)

	// Get retrieves one item by id. Returns ErrNotFound when the id does not
	// exist or when it belongs to a different owner.
	Get(ctx context.Context, id string, ident Identity) (Item, error)

	// List retrieves all items visible to the identity, every item for admin
	// callers.
	List(ctx context.Context, ident Identity) ([]Item, error)

	// Update applies a partial patch to the addressed item and returns the
	// updated document. Same ownership-as-NotFound rule as Get.
	Update(ctx context.Context, id string, patch ItemPatch, ident Identity) (Item, error)

	// Delete removes the item document. Deleting a missing id is a success
	// (idempotent). An ownership mismatch leaves the document untouched and
	// reports ErrNotFound.
	Delete(ctx context.Context, id string, ident Identity) error

	// ReplacePhotos overwrites the item's entire embedded photo list and
	// returns the updated document. This is the single write path for all
	// photo-list mutations; callers compute the new list from a prior Get.
	// Not atomic under concurrent writers on the same item.
	ReplacePhotos(ctx context.Context, id string, photos []Photo, ident Identity) (Item, error)
}
