// Package internal holds JSON document encoding shared by the database
// backends. Photos and measurements are embedded in the item row as JSON so
// the whole item reads and writes as a single document.
package internal

import (
	"encoding/json"
	"fmt"

	"github.com/kilnlog/kilnlog"
)

// EncodePhotos serializes the embedded photo list. A nil list encodes as an
// empty JSON array so the column is never NULL.
func EncodePhotos(photos []kilnlog.Photo) ([]byte, error) {
	if photos == nil {
		photos = []kilnlog.Photo{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("encode photos: %w", err)
	}
	return data, nil
}

// DecodePhotos deserializes the embedded photo list. Empty input decodes as
// an empty list.
func DecodePhotos(data []byte) ([]kilnlog.Photo, error) {
	if len(data) == 0 {
		return []kilnlog.Photo{}, nil
	}
	var photos []kilnlog.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if photos == nil {
		photos = []kilnlog.Photo{}
	}
	return photos, nil
}

// EncodeMeasurements serializes the measurements document, nil when absent.
func EncodeMeasurements(m *kilnlog.Measurements) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode measurements: %w", err)
	}
	return data, nil
}

// DecodeMeasurements deserializes the measurements document, nil when absent.
func DecodeMeasurements(data []byte) (*kilnlog.Measurements, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m kilnlog.Measurements
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode measurements: %w", err)
	}
	return &m, nil
}
