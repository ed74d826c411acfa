package kilnlog

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Identity is the caller identity supplied by the identity provider.
// The core treats OwnerID as an opaque, unverified string and performs no
// validation beyond equality comparison against stored owner ids.
// Admin identities bypass owner scoping entirely.
type Identity struct {
	OwnerID string
	Admin   bool
}

// Scoped reports whether repository operations should filter by owner.
func (id Identity) Scoped() bool {
	return !id.Admin
}

// Status is the firing status of an item.
type Status string

const (
	StatusGreenware Status = "greenware"
	StatusBisque    Status = "bisque"
	StatusFinal     Status = "final"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusGreenware, StatusBisque, StatusFinal:
		return true
	default:
		return false
	}
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid status: %s (valid statuses: greenware, bisque, final)", s)
	}
	return status, nil
}

// MeasurementDetail is one measurement set in centimeters.
type MeasurementDetail struct {
	Height *float64 `json:"height,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

// Measurements holds per-stage measurement sets.
type Measurements struct {
	Greenware *MeasurementDetail `json:"greenware,omitempty"`
	Bisque    *MeasurementDetail `json:"bisque,omitempty"`
	Final     *MeasurementDetail `json:"final,omitempty"`
}

// Photo is one embedded photo record of an item. BlobPath references the blob
// store's namespace and is never exposed to external callers; the HTTP layer
// swaps it for a freshly signed URL.
type Photo struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	ImageNote  string    `json:"image_note,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	BlobPath   string    `json:"blob_path"`
	UploadedAt time.Time `json:"uploaded_at"`
	IsPrimary  bool      `json:"is_primary"`
}

// Item is a cataloged craft object. OwnerID is immutable after creation.
// CreatedAt is always stored as UTC; CreatedTimezone records the origin zone
// for display ("UTC", a zone name, or a "+HH:MM" offset string).
type Item struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	Name            string        `json:"name"`
	ClayType        string        `json:"clay_type"`
	Status          Status        `json:"status"`
	Glaze           string        `json:"glaze,omitempty"`
	Location        string        `json:"location"`
	Note            string        `json:"note,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	CreatedTimezone string        `json:"created_timezone,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Measurements    *Measurements `json:"measurements,omitempty"`
	Photos          []Photo       `json:"photos"`
}

// PhotoByID returns the embedded photo with the given id.
func (it Item) PhotoByID(photoID string) (Photo, bool) {
	for _, p := range it.Photos {
		if p.ID == photoID {
			return p, true
		}
	}
	return Photo{}, false
}

// BlobPaths returns the blob paths of all photos, skipping empty entries.
func (it Item) BlobPaths() []string {
	paths := make([]string, 0, len(it.Photos))
	for _, p := range it.Photos {
		if p.BlobPath != "" {
			paths = append(paths, p.BlobPath)
		}
	}
	return paths
}

// ItemFields holds the caller-supplied fields for creating an item.
type ItemFields struct {
	Name         string
	ClayType     string
	Status       Status
	Glaze        string
	Location     string
	Note         string
	CreatedAt    time.Time
	Measurements *Measurements
}

// ItemPatch holds a partial item update. Only non-nil fields are applied.
type ItemPatch struct {
	Name         *string
	ClayType     *string
	Status       *Status
	Glaze        *string
	Location     *string
	Note         *string
	CreatedAt    *time.Time
	Measurements *Measurements
}

// IsEmpty reports whether the patch carries no changes.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.ClayType == nil && p.Status == nil &&
		p.Glaze == nil && p.Location == nil && p.Note == nil &&
		p.CreatedAt == nil && p.Measurements == nil
}

// Apply merges the patch into the item, re-normalizing CreatedAt to UTC and
// re-deriving the origin timezone identifier when that field is present.
func (p ItemPatch) Apply(it Item) Item {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.ClayType != nil {
		it.ClayType = *p.ClayType
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.Glaze != nil {
		it.Glaze = *p.Glaze
	}
	if p.Location != nil {
		it.Location = *p.Location
	}
	if p.Note != nil {
		it.Note = *p.Note
	}
	if p.CreatedAt != nil {
		it.CreatedTimezone = TimezoneIdentifier(*p.CreatedAt)
		it.CreatedAt = p.CreatedAt.UTC()
	}
	if p.Measurements != nil {
		it.Measurements = p.Measurements
	}
	return it
}

// PhotoFields holds the caller-supplied fields for uploading a photo.
type PhotoFields struct {
	Stage       string
	ImageNote   string
	FileName    string
	ContentType string
}

// PhotoPatch holds a partial photo-details update (stage and note only).
type PhotoPatch struct {
	Stage     *string
	ImageNote *string
}

// IsEmpty reports whether the patch carries no changes.
func (p PhotoPatch) IsEmpty() bool {
	return p.Stage == nil && p.ImageNote == nil
}

func (p PhotoPatch) apply(photo Photo) Photo {
	if p.Stage != nil {
		photo.Stage = *p.Stage
	}
	if p.ImageNote != nil {
		photo.ImageNote = *p.ImageNote
	}
	return photo
}

// TimezoneIdentifier derives a display identifier for the zone a timestamp was
// supplied in: "UTC" for zero offset, the zone name when one is attached, else
// a "+HH:MM"/"-HH:MM" offset string.
func TimezoneIdentifier(t time.Time) string {
	name, offset := t.Zone()
	if offset == 0 {
		return "UTC"
	}
	if name != "" && name != "Local" && !hasOffsetShape(name) {
		return name
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, hours, minutes)
}

func hasOffsetShape(name string) bool {
	for _, c := range name {
		if c == '+' || c == '-' {
			return true
		}
	}
	return false
}

// Collections holds configurable collection (table) names for the document
// store. This allows multi-tenant deployments to use different names.
type Collections struct {
	Items string `mapstructure:"items"`
}

var validCollectionNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidCollectionName checks if a collection name is valid (lowercase,
// alphanumeric with underscores, max 63 chars).
func IsValidCollectionName(name string) bool {
	return validCollectionNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required collection names are set and valid.
func (c Collections) Validate() error {
	if c.Items == "" {
		return errors.New("validate collections: items collection name cannot be empty")
	}

	if !IsValidCollectionName(c.Items) {
		return fmt.Errorf("validate collections: invalid items collection name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", c.Items)
	}

	return nil
}
