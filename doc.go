// Package kilnlog provides a catalog of physical craft items, each carrying
// zero or more photographs, with metadata and photo bytes held in two
// independently-failing stores kept in agreement by an explicit saga
// coordinator.
//
// # Key Components
//
//   - Service: the coordinator sequencing document-store and blob-store calls
//     for the upload-photo, delete-photo, and delete-item sagas, with
//     compensation on partial failure
//   - ItemRepo: interface for owner-scoped item persistence (PostgreSQL, SQLite)
//   - PhotoCollection: read-modify-write mutations of an item's embedded photo
//     list, sole writer of the one-primary-photo-per-item flag
//   - BlobStore: interface for photo byte storage (filesystem, extensible to
//     S3/GCS)
//   - URLSigner: HMAC-based time-limited read URLs for blobs
//
// # Ownership Scoping
//
// Every operation takes an Identity. Non-admin callers only see their own
// items; a lookup that hits another owner's item is indistinguishable from a
// lookup of a missing id (both ErrNotFound). This is a deliberate
// anti-enumeration choice.
//
// # Consistency Model
//
// There is no cross-store transaction. The sagas order their steps so that a
// failure always leaves a retryable state: uploads store bytes before
// metadata (and delete the bytes again when the metadata write fails), while
// deletes remove bytes first and metadata last, so metadata never references
// a blob that was provably deleted on purpose. The one remaining bad state --
// blob gone, metadata removal failed -- is logged as operator-visible rather
// than auto-recovered.
//
// Photo-list mutations are full-list rewrites with no concurrency control;
// two concurrent writers on the same item can lose an update. See the http
// package for the REST surface and the database/postgres and database/sqlite
// packages for the document-store backends.
package kilnlog
