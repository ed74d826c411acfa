// Package sqlite implements the item repo interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/internal"
)

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns an ItemRepo backed by the given SQLite connection. The
// table must already exist; see Migrate and ValidateSchema.
func NewRepo(db *sql.DB, collections kilnlog.Collections) (kilnlog.ItemRepo, error) {
	if err := collections.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{db: db, tableName: collections.Items}, nil
}

const itemColumns = `id, owner_id, name, clay_type, status, glaze, location, note,
		created_at, created_timezone, updated_at, measurements, photos`

func (r *repo) Create(ctx context.Context, fields kilnlog.ItemFields, ident kilnlog.Identity) (kilnlog.Item, error) {
	now := time.Now().UTC()
	item := kilnlog.Item{
		ID:              uuid.New().String(),
		OwnerID:         ident.OwnerID,
		Name:            fields.Name,
		ClayType:        fields.ClayType,
		Status:          fields.Status,
		Glaze:           fields.Glaze,
		Location:        fields.Location,
		Note:            fields.Note,
		CreatedAt:       fields.CreatedAt.UTC(),
		CreatedTimezone: kilnlog.TimezoneIdentifier(fields.CreatedAt),
		UpdatedAt:       now,
		Measurements:    fields.Measurements,
		Photos:          []kilnlog.Photo{},
	}

	measurements, err := internal.EncodeMeasurements(item.Measurements)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("create: %w", err)
	}
	photos, err := internal.EncodePhotos(item.Photos)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("create: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Name, item.ClayType, string(item.Status),
		nullString(item.Glaze), item.Location, nullString(item.Note),
		item.CreatedAt.Format(time.RFC3339Nano), nullString(item.CreatedTimezone),
		item.UpdatedAt.Format(time.RFC3339Nano), nullBytes(measurements), photos,
	)
	if err != nil {
		return kilnlog.Item{}, classify("create", err)
	}

	return item, nil
}

func (r *repo) Get(ctx context.Context, id string, ident kilnlog.Identity) (kilnlog.Item, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT `+itemColumns+` FROM %s WHERE id = ?`, r.tableName)
	args := []any{id}

	// An item owned by someone else is indistinguishable from a missing one.
	if ident.Scoped() {
		query += ` AND owner_id = ?`
		args = append(args, ident.OwnerID)
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kilnlog.Item{}, fmt.Errorf("get: %w", kilnlog.ErrNotFound)
		}
		return kilnlog.Item{}, classify("get", err)
	}

	return item, nil
}

func (r *repo) List(ctx context.Context, ident kilnlog.Identity) ([]kilnlog.Item, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT `+itemColumns+` FROM %s`, r.tableName)
	var args []any

	if ident.Scoped() {
		query += ` WHERE owner_id = ?`
		args = append(args, ident.OwnerID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list", err)
	}
	defer func() { _ = rows.Close() }()

	items := []kilnlog.Item{}
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, classify("list", scanErr)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("list", err)
	}

	return items, nil
}

func (r *repo) Update(ctx context.Context, id string, patch kilnlog.ItemPatch, ident kilnlog.Identity) (kilnlog.Item, error) {
	item, err := r.Get(ctx, id, ident)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("update: %w", err)
	}

	item = patch.Apply(item)
	item.UpdatedAt = time.Now().UTC()

	measurements, err := internal.EncodeMeasurements(item.Measurements)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("update: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET name = ?, clay_type = ?, status = ?, glaze = ?, location = ?, note = ?,
			created_at = ?, created_timezone = ?, updated_at = ?, measurements = ?
		WHERE id = ?`, r.tableName)

	_, err = r.db.ExecContext(ctx, query,
		item.Name, item.ClayType, string(item.Status),
		nullString(item.Glaze), item.Location, nullString(item.Note),
		item.CreatedAt.Format(time.RFC3339Nano), nullString(item.CreatedTimezone),
		item.UpdatedAt.Format(time.RFC3339Nano), nullBytes(measurements),
		id,
	)
	if err != nil {
		return kilnlog.Item{}, classify("update", err)
	}

	return item, nil
}

func (r *repo) Delete(ctx context.Context, id string, ident kilnlog.Identity) error {
	// Deleting a missing id is a success, but an ownership mismatch is not,
	// so resolve the owner before deleting.
	if ident.Scoped() {
		var ownerID string
		query := fmt.Sprintf(`SELECT owner_id FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated
		err := r.db.QueryRowContext(ctx, query, id).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return classify("delete", err)
		}
		if ownerID != ident.OwnerID {
			return fmt.Errorf("delete: %w", kilnlog.ErrNotFound)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return classify("delete", err)
	}

	return nil
}

func (r *repo) ReplacePhotos(ctx context.Context, id string, photos []kilnlog.Photo, ident kilnlog.Identity) (kilnlog.Item, error) {
	item, err := r.Get(ctx, id, ident)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("replace photos: %w", err)
	}

	item.Photos = photos
	if item.Photos == nil {
		item.Photos = []kilnlog.Photo{}
	}
	item.UpdatedAt = time.Now().UTC()

	encoded, err := internal.EncodePhotos(item.Photos)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("replace photos: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET photos = ?, updated_at = ? WHERE id = ?`, r.tableName)

	_, err = r.db.ExecContext(ctx, query, encoded, item.UpdatedAt.Format(time.RFC3339Nano), id)
	if err != nil {
		return kilnlog.Item{}, classify("replace photos", err)
	}

	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (kilnlog.Item, error) {
	var item kilnlog.Item
	var status string
	var glaze, note, createdTimezone sql.NullString
	var createdAt, updatedAt string
	var measurements, photos []byte

	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.ClayType, &status,
		&glaze, &item.Location, &note, &createdAt, &createdTimezone,
		&updatedAt, &measurements, &photos,
	)
	if err != nil {
		return kilnlog.Item{}, err
	}

	item.Status = kilnlog.Status(status)
	item.Glaze = glaze.String
	item.Note = note.String
	item.CreatedTimezone = createdTimezone.String

	item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("parse created_at: %w", err)
	}

	item.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return kilnlog.Item{}, fmt.Errorf("parse updated_at: %w", err)
	}

	item.Measurements, err = internal.DecodeMeasurements(measurements)
	if err != nil {
		return kilnlog.Item{}, err
	}

	item.Photos, err = internal.DecodePhotos(photos)
	if err != nil {
		return kilnlog.Item{}, err
	}

	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// classify maps driver faults onto the repo error taxonomy. Connection-level
// faults report the store as unavailable; anything else is an upstream fault.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%s: %v: %w", op, err, kilnlog.ErrStoreUnavailable)
	default:
		return fmt.Errorf("%s: %v: %w", op, err, kilnlog.ErrUpstream)
	}
}
