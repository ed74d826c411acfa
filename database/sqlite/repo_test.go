package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/sqlite"
)

var (
	potter  = kilnlog.Identity{OwnerID: "potter-1"}
	visitor = kilnlog.Identity{OwnerID: "potter-2"}
	admin   = kilnlog.Identity{Admin: true}
)

func mugFields() kilnlog.ItemFields {
	return kilnlog.ItemFields{
		Name:      "tall mug",
		ClayType:  "stoneware",
		Status:    kilnlog.StatusGreenware,
		Location:  "shelf A",
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	ist := time.FixedZone("", 5*3600+1800)
	height := 12.5
	fields := mugFields()
	fields.Glaze = "celadon"
	fields.Note = "first attempt"
	fields.CreatedAt = time.Date(2026, 3, 1, 10, 30, 0, 0, ist)
	fields.Measurements = &kilnlog.Measurements{
		Greenware: &kilnlog.MeasurementDetail{Height: &height},
	}

	created, err := repo.Create(ctx, fields, potter)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, potter.OwnerID, created.OwnerID)
	assert.Equal(t, time.UTC, created.CreatedAt.Location())
	assert.Equal(t, "+05:30", created.CreatedTimezone)
	assert.True(t, fields.CreatedAt.Equal(created.CreatedAt), "instant must be preserved")
	assert.Empty(t, created.Photos)

	got, err := repo.Get(ctx, created.ID, potter)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "tall mug", got.Name)
	assert.Equal(t, "celadon", got.Glaze)
	assert.Equal(t, "first attempt", got.Note)
	assert.Equal(t, "+05:30", got.CreatedTimezone)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Measurements)
	require.NotNil(t, got.Measurements.Greenware)
	assert.InDelta(t, 12.5, *got.Measurements.Greenware.Height, 0.001)
	assert.Empty(t, got.Photos)
}

func TestRepo_Get_MissingAndForeign(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.Get(ctx, "no-such-id", potter)
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)
	})

	t.Run("foreign owner looks missing", func(t *testing.T) {
		_, err := repo.Get(ctx, created.ID, visitor)
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)
	})

	t.Run("admin is unscoped", func(t *testing.T) {
		got, err := repo.Get(ctx, created.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, potter.OwnerID, got.OwnerID)
	})
}

func TestRepo_List_ScopedByOwner(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	for range 3 {
		_, err := repo.Create(ctx, mugFields(), potter)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, mugFields(), visitor)
	require.NoError(t, err)

	mine, err := repo.List(ctx, potter)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	for _, it := range mine {
		assert.Equal(t, potter.OwnerID, it.OwnerID)
	}

	all, err := repo.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := repo.List(ctx, kilnlog.Identity{OwnerID: "potter-3"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepo_Update_AppliesOnlyPatchedFields(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)

	name := "small mug"
	status := kilnlog.StatusBisque
	patch := kilnlog.ItemPatch{Name: &name, Status: &status}

	updated, err := repo.Update(ctx, created.ID, patch, potter)
	require.NoError(t, err)
	assert.Equal(t, "small mug", updated.Name)
	assert.Equal(t, kilnlog.StatusBisque, updated.Status)
	assert.Equal(t, created.ClayType, updated.ClayType)
	assert.Equal(t, created.Location, updated.Location)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := repo.Get(ctx, created.ID, potter)
	require.NoError(t, err)
	assert.Equal(t, "small mug", got.Name)
}

func TestRepo_Update_CreatedAtPatchRederivesTimezone(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)
	assert.Equal(t, "UTC", created.CreatedTimezone)

	est := time.FixedZone("", -5*3600)
	when := time.Date(2026, 1, 5, 8, 0, 0, 0, est)
	patch := kilnlog.ItemPatch{CreatedAt: &when}

	updated, err := repo.Update(ctx, created.ID, patch, potter)
	require.NoError(t, err)
	assert.Equal(t, "-05:00", updated.CreatedTimezone)
	assert.Equal(t, time.UTC, updated.CreatedAt.Location())
	assert.True(t, when.Equal(updated.CreatedAt))
}

func TestRepo_Update_Foreign_NotFound(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)

	name := "stolen"
	_, err = repo.Update(ctx, created.ID, kilnlog.ItemPatch{Name: &name}, visitor)
	assert.ErrorIs(t, err, kilnlog.ErrNotFound)

	got, err := repo.Get(ctx, created.ID, potter)
	require.NoError(t, err)
	assert.Equal(t, "tall mug", got.Name)
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)

	t.Run("missing id is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, "no-such-id", potter))
	})

	t.Run("foreign owner leaves the item untouched", func(t *testing.T) {
		err := repo.Delete(ctx, created.ID, visitor)
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)

		_, err = repo.Get(ctx, created.ID, potter)
		assert.NoError(t, err)
	})

	t.Run("owner delete removes the item", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID, potter))

		_, err := repo.Get(ctx, created.ID, potter)
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)

		// And a second delete is still a success.
		assert.NoError(t, repo.Delete(ctx, created.ID, potter))
	})
}

func TestRepo_ReplacePhotos(t *testing.T) {
	t.Parallel()
	repo, _, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, mugFields(), potter)
	require.NoError(t, err)

	photos := []kilnlog.Photo{
		{
			ID:         "photo-1",
			Stage:      "greenware",
			FileName:   "mug.jpg",
			BlobPath:   "items/" + created.ID + "/photo-1.jpg",
			UploadedAt: time.Now().UTC(),
			IsPrimary:  true,
		},
		{
			ID:         "photo-2",
			Stage:      "bisque",
			ImageNote:  "after first firing",
			BlobPath:   "items/" + created.ID + "/photo-2.jpg",
			UploadedAt: time.Now().UTC(),
		},
	}

	updated, err := repo.ReplacePhotos(ctx, created.ID, photos, potter)
	require.NoError(t, err)
	require.Len(t, updated.Photos, 2)
	assert.True(t, updated.Photos[0].IsPrimary)
	assert.False(t, updated.Photos[1].IsPrimary)

	got, err := repo.Get(ctx, created.ID, potter)
	require.NoError(t, err)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, "photo-1", got.Photos[0].ID)
	assert.Equal(t, "after first firing", got.Photos[1].ImageNote)

	t.Run("foreign owner cannot replace", func(t *testing.T) {
		_, err := repo.ReplacePhotos(ctx, created.ID, nil, visitor)
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)
	})

	t.Run("nil list clears photos", func(t *testing.T) {
		cleared, err := repo.ReplacePhotos(ctx, created.ID, nil, potter)
		require.NoError(t, err)
		assert.Empty(t, cleared.Photos)
	})
}

func TestMigrateAndValidateSchema(t *testing.T) {
	t.Parallel()
	_, db, collections := setupTestRepo(t)
	ctx := context.Background()

	assert.NoError(t, sqlite.ValidateSchema(ctx, db, collections))

	t.Run("missing table fails validation", func(t *testing.T) {
		missing := kilnlog.Collections{Items: "items_not_created"}
		assert.Error(t, sqlite.ValidateSchema(ctx, db, missing))
	})

	t.Run("drop then validate fails", func(t *testing.T) {
		require.NoError(t, sqlite.DropTables(ctx, db, collections))
		assert.Error(t, sqlite.ValidateSchema(ctx, db, collections))
	})
}
