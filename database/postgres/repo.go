// Package postgres implements the item repo interface using a pgx pool
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/internal"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo returns an ItemRepo backed by the given connection pool. The table
// must already exist; see Migrate and ValidateSchema.
func NewRepo(pool *pgxpool.Pool, collections kilnlog.Collections) (*Repo, error) {
	if err := collections.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: collections.Items}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const itemColumns = `id::text, owner_id, name, clay_type, status, glaze, location, note,
		created_at, created_timezone, updated_at, measurements, photos`

func (r *Repo) Create(ctx context.Context, fields kilnlog.ItemFields, ident kilnlog.Identity) (kilnlog.Item, error) {
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

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, name, clay_type, status, glaze, location, note,
			created_at, created_timezone, updated_at, measurements, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tableName)

	_, err = r.pool.Exec(ctx, query,
		item.ID, item.OwnerID, item.Name, item.ClayType, string(item.Status),
		textOrNil(item.Glaze), item.Location, textOrNil(item.Note),
		item.CreatedAt, textOrNil(item.CreatedTimezone), item.UpdatedAt,
		measurements, photos,
	)
	if err != nil {
		return kilnlog.Item{}, classify("create", err)
	}

	return item, nil
}

func (r *Repo) Get(ctx context.Context, id string, ident kilnlog.Identity) (kilnlog.Item, error) {
	query := fmt.Sprintf(`
		SELECT `+itemColumns+`
		FROM %s
		WHERE id::text = $1
	`, r.tableName)
	args := []any{id}

	// An item owned by someone else is indistinguishable from a missing one.
	if ident.Scoped() {
		query += ` AND owner_id = $2`
		args = append(args, ident.OwnerID)
	}

	item, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kilnlog.Item{}, fmt.Errorf("get: %w", kilnlog.ErrNotFound)
		}
		return kilnlog.Item{}, classify("get", err)
	}

	return item, nil
}

func (r *Repo) List(ctx context.Context, ident kilnlog.Identity) ([]kilnlog.Item, error) {
	query := fmt.Sprintf(`
		SELECT `+itemColumns+`
		FROM %s
	`, r.tableName)
	var args []any

	if ident.Scoped() {
		query += ` WHERE owner_id = $1`
		args = append(args, ident.OwnerID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list", err)
	}
	defer rows.Close()

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

func (r *Repo) Update(ctx context.Context, id string, patch kilnlog.ItemPatch, ident kilnlog.Identity) (kilnlog.Item, error) {
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

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, clay_type = $2, status = $3, glaze = $4, location = $5,
			note = $6, created_at = $7, created_timezone = $8, updated_at = $9,
			measurements = $10
		WHERE id::text = $11
	`, r.tableName)

	_, err = r.pool.Exec(ctx, query,
		item.Name, item.ClayType, string(item.Status),
		textOrNil(item.Glaze), item.Location, textOrNil(item.Note),
		item.CreatedAt, textOrNil(item.CreatedTimezone), item.UpdatedAt,
		measurements,
		id,
	)
	if err != nil {
		return kilnlog.Item{}, classify("update", err)
	}

	return item, nil
}

func (r *Repo) Delete(ctx context.Context, id string, ident kilnlog.Identity) error {
	// Deleting a missing id is a success, but an ownership mismatch is not,
	// so resolve the owner before deleting.
	if ident.Scoped() {
		var ownerID string
		query := fmt.Sprintf(`SELECT owner_id FROM %s WHERE id::text = $1`, r.tableName)
		err := r.pool.QueryRow(ctx, query, id).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return classify("delete", err)
		}
		if ownerID != ident.OwnerID {
			return fmt.Errorf("delete: %w", kilnlog.ErrNotFound)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1`, r.tableName)
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return classify("delete", err)
	}

	return nil
}

func (r *Repo) ReplacePhotos(ctx context.Context, id string, photos []kilnlog.Photo, ident kilnlog.Identity) (kilnlog.Item, error) {
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

	query := fmt.Sprintf(`
		UPDATE %s SET photos = $1, updated_at = $2 WHERE id::text = $3
	`, r.tableName)

	_, err = r.pool.Exec(ctx, query, encoded, item.UpdatedAt, id)
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
	var glaze, note, createdTimezone *string
	var measurements, photos []byte

	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.ClayType, &status,
		&glaze, &item.Location, &note, &item.CreatedAt, &createdTimezone,
		&item.UpdatedAt, &measurements, &photos,
	)
	if err != nil {
		return kilnlog.Item{}, err
	}

	item.Status = kilnlog.Status(status)
	if glaze != nil {
		item.Glaze = *glaze
	}
	if note != nil {
		item.Note = *note
	}
	if createdTimezone != nil {
		item.CreatedTimezone = *createdTimezone
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()

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

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// classify maps pgx faults onto the repo error taxonomy. Connection-level
// faults report the store as unavailable; anything else is an upstream fault.
func classify(op string, err error) error {
	var netErr net.Error
	var connErr *pgconn.ConnectError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.As(err, &netErr), errors.As(err, &connErr):
		return fmt.Errorf("%s: %v: %w", op, err, kilnlog.ErrStoreUnavailable)
	default:
		return fmt.Errorf("%s: %v: %w", op, err, kilnlog.ErrUpstream)
	}
}
