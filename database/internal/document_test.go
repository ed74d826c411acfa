package internal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/internal"
)

func TestEncodePhotos_NilEncodesAsEmptyArray(t *testing.T) {
	t.Parallel()

	data, err := internal.EncodePhotos(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	photos, err := internal.DecodePhotos(data)
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

func TestPhotos_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []kilnlog.Photo{{
		ID:         "photo-1",
		Stage:      "bisque",
		ImageNote:  "hairline crack on rim",
		FileName:   "rim.jpg",
		BlobPath:   "items/item-1/photo-1.jpg",
		UploadedAt: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
		IsPrimary:  true,
	}}

	data, err := internal.EncodePhotos(in)
	require.NoError(t, err)

	out, err := internal.DecodePhotos(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodePhotos_EmptyInput(t *testing.T) {
	t.Parallel()

	photos, err := internal.DecodePhotos(nil)
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

func TestMeasurements_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := internal.EncodeMeasurements(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	out, err := internal.DecodeMeasurements(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	height := 14.0
	in := &kilnlog.Measurements{Bisque: &kilnlog.MeasurementDetail{Height: &height}}

	data, err = internal.EncodeMeasurements(in)
	require.NoError(t, err)

	out, err = internal.DecodeMeasurements(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
