package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kilnlog/kilnlog"
)

var validate = validator.New()

// decodeValid decodes a JSON request body and runs struct-tag validation.
// Both failure modes surface as a validation error.
func decodeValid[T any](r *http.Request) (T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid request body: %v", kilnlog.ErrValidation, err)
	}
	if err := validate.Struct(&req); err != nil {
		return req, fmt.Errorf("%w: %v", kilnlog.ErrValidation, err)
	}
	return req, nil
}

type createItemRequest struct {
	Name         string                `json:"name" validate:"required"`
	ClayType     string                `json:"clay_type" validate:"required"`
	Status       string                `json:"status" validate:"omitempty,oneof=greenware bisque final"`
	Glaze        string                `json:"glaze"`
	Location     string                `json:"location" validate:"required"`
	Note         string                `json:"note"`
	CreatedAt    *time.Time            `json:"created_at"`
	Measurements *kilnlog.Measurements `json:"measurements"`
}

func (r createItemRequest) fields() kilnlog.ItemFields {
	fields := kilnlog.ItemFields{
		Name:         r.Name,
		ClayType:     r.ClayType,
		Status:       kilnlog.Status(r.Status),
		Glaze:        r.Glaze,
		Location:     r.Location,
		Note:         r.Note,
		Measurements: r.Measurements,
	}
	if r.CreatedAt != nil {
		fields.CreatedAt = *r.CreatedAt
	}
	return fields
}

type updateItemRequest struct {
	Name         *string               `json:"name" validate:"omitempty,min=1"`
	ClayType     *string               `json:"clay_type" validate:"omitempty,min=1"`
	Status       *string               `json:"status" validate:"omitempty,oneof=greenware bisque final"`
	Glaze        *string               `json:"glaze"`
	Location     *string               `json:"location" validate:"omitempty,min=1"`
	Note         *string               `json:"note"`
	CreatedAt    *time.Time            `json:"created_at"`
	Measurements *kilnlog.Measurements `json:"measurements"`
}

func (r updateItemRequest) patch() kilnlog.ItemPatch {
	patch := kilnlog.ItemPatch{
		Name:         r.Name,
		ClayType:     r.ClayType,
		Glaze:        r.Glaze,
		Location:     r.Location,
		Note:         r.Note,
		CreatedAt:    r.CreatedAt,
		Measurements: r.Measurements,
	}
	if r.Status != nil {
		status := kilnlog.Status(*r.Status)
		patch.Status = &status
	}
	return patch
}

type updatePhotoDetailsRequest struct {
	Stage     *string `json:"stage" validate:"omitempty,min=1"`
	ImageNote *string `json:"image_note"`
}

func (r updatePhotoDetailsRequest) patch() kilnlog.PhotoPatch {
	return kilnlog.PhotoPatch{Stage: r.Stage, ImageNote: r.ImageNote}
}

// photoResponse is the external shape of a photo. The stored blob path stays
// internal; callers get a time-limited URL instead, empty when the blob is
// unavailable.
type photoResponse struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	ImageNote  string    `json:"image_note,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	IsPrimary  bool      `json:"is_primary"`
}

func toPhotoResponse(p kilnlog.Photo, url string) photoResponse {
	return photoResponse{
		ID:         p.ID,
		Stage:      p.Stage,
		ImageNote:  p.ImageNote,
		FileName:   p.FileName,
		URL:        url,
		UploadedAt: p.UploadedAt,
		IsPrimary:  p.IsPrimary,
	}
}

type itemResponse struct {
	ID              string                `json:"id"`
	OwnerID         string                `json:"owner_id"`
	Name            string                `json:"name"`
	ClayType        string                `json:"clay_type"`
	Status          string                `json:"status"`
	Glaze           string                `json:"glaze,omitempty"`
	Location        string                `json:"location"`
	Note            string                `json:"note,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	CreatedTimezone string                `json:"created_timezone,omitempty"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Measurements    *kilnlog.Measurements `json:"measurements,omitempty"`
	Photos          []photoResponse       `json:"photos"`
}

func newItemResponse(item kilnlog.Item, photos []photoResponse) itemResponse {
	return itemResponse{
		ID:              item.ID,
		OwnerID:         item.OwnerID,
		Name:            item.Name,
		ClayType:        item.ClayType,
		Status:          string(item.Status),
		Glaze:           item.Glaze,
		Location:        item.Location,
		Note:            item.Note,
		CreatedAt:       item.CreatedAt,
		CreatedTimezone: item.CreatedTimezone,
		UpdatedAt:       item.UpdatedAt,
		Measurements:    item.Measurements,
		Photos:          photos,
	}
}
