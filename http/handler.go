package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kilnlog/kilnlog"
)

type Service interface {
	CreateItem(ctx context.Context, fields kilnlog.ItemFields, ident kilnlog.Identity) (kilnlog.Item, error)
	GetItem(ctx context.Context, id string, ident kilnlog.Identity) (kilnlog.Item, error)
	ListItems(ctx context.Context, ident kilnlog.Identity) ([]kilnlog.Item, error)
	UpdateItem(ctx context.Context, id string, patch kilnlog.ItemPatch, ident kilnlog.Identity) (kilnlog.Item, error)
	DeleteItem(ctx context.Context, id string, ident kilnlog.Identity) error
	UploadPhoto(ctx context.Context, itemID string, fields kilnlog.PhotoFields, content io.Reader, ident kilnlog.Identity) (kilnlog.Photo, string, error)
	DeletePhoto(ctx context.Context, itemID, photoID string, ident kilnlog.Identity) error
	UpdatePhotoDetails(ctx context.Context, itemID, photoID string, patch kilnlog.PhotoPatch, ident kilnlog.Identity) (kilnlog.Photo, string, error)
	SetPrimaryPhoto(ctx context.Context, itemID, photoID string, ident kilnlog.Identity) (kilnlog.Photo, string, error)
	PhotoURL(ctx context.Context, photo kilnlog.Photo) string
}

// BlobOpener serves stored blob content for the signed-URL route.
type BlobOpener interface {
	Open(ctx context.Context, blobPath string) (io.ReadSeekCloser, error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	Provider kilnlog.TokenProvider
	Signer   *kilnlog.URLSigner
	CORS     CORSConfig
}

// Handler provides HTTP handlers for the item catalog.
type Handler struct {
	config  HandlerConfig
	service Service
	blobs   BlobOpener
}

// NewHandler creates a new Handler with the given configuration, service,
// and blob opener.
func NewHandler(config *HandlerConfig, service Service, blobs BlobOpener) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		blobs:   blobs,
	}
}

// Router returns an http.Handler with all routes configured. The item and
// photo routes require a bearer token; the blob route authenticates with the
// signed-URL query parameters instead.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Provider))

		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", h.handleListItems)
			r.Post("/", h.handleCreateItem)

			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", h.handleGetItem)
				r.Patch("/", h.handleUpdateItem)
				r.Delete("/", h.handleDeleteItem)

				r.Post("/photos", h.handleUploadPhoto)
				r.Route("/photos/{photoID}", func(r chi.Router) {
					r.Delete("/", h.handleDeletePhoto)
					r.Put("/details", h.handleUpdatePhotoDetails)
					r.Put("/primary", h.handleSetPrimaryPhoto)
				})
			})
		})
	})

	r.Get("/blobs/*", h.handleGetBlob)

	return r
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())

	items, err := h.service.ListItems(r.Context(), ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.toItemResponse(r.Context(), item))
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())

	req, err := decodeValid[createItemRequest](r)
	if err != nil {
		HandleError(w, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), req.fields(), ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, h.toItemResponse(r.Context(), item))
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")

	item, err := h.service.GetItem(r.Context(), itemID, ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, h.toItemResponse(r.Context(), item))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")

	req, err := decodeValid[updateItemRequest](r)
	if err != nil {
		HandleError(w, err)
		return
	}

	patch := req.patch()
	if patch.IsEmpty() {
		WriteError(w, http.StatusUnprocessableEntity, "validation_failure", "No update data provided")
		return
	}

	item, err := h.service.UpdateItem(r.Context(), itemID, patch, ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, h.toItemResponse(r.Context(), item))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if err := h.service.DeleteItem(r.Context(), itemID, ident); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// maxUploadBytes caps photo uploads at 20 MiB.
const maxUploadBytes = 20 << 20

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "validation_failure", "Expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "validation_failure", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	fields := kilnlog.PhotoFields{
		Stage:       r.FormValue("stage"),
		ImageNote:   r.FormValue("image_note"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}

	photo, url, err := h.service.UploadPhoto(r.Context(), itemID, fields, file, ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, toPhotoResponse(photo, url))
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")
	photoID := chi.URLParam(r, "photoID")

	if err := h.service.DeletePhoto(r.Context(), itemID, photoID, ident); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdatePhotoDetails(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")
	photoID := chi.URLParam(r, "photoID")

	req, err := decodeValid[updatePhotoDetailsRequest](r)
	if err != nil {
		HandleError(w, err)
		return
	}

	photo, url, err := h.service.UpdatePhotoDetails(r.Context(), itemID, photoID, req.patch(), ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, toPhotoResponse(photo, url))
}

func (h *Handler) handleSetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	ident := MustIdentity(r.Context())
	itemID := chi.URLParam(r, "itemID")
	photoID := chi.URLParam(r, "photoID")

	photo, url, err := h.service.SetPrimaryPhoto(r.Context(), itemID, photoID, ident)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, toPhotoResponse(photo, url))
}

func (h *Handler) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	blobPath := chi.URLParam(r, "*")

	if !kilnlog.IsValidBlobPath(blobPath) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	if err := h.config.Signer.Verify(blobPath, r.URL.Query()); err != nil {
		HandleError(w, err)
		return
	}

	content, err := h.blobs.Open(r.Context(), blobPath)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if ct := mime.TypeByExtension(path.Ext(blobPath)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	http.ServeContent(w, r, path.Base(blobPath), time.Time{}, content)
}

func (h *Handler) toItemResponse(ctx context.Context, item kilnlog.Item) itemResponse {
	photos := make([]photoResponse, 0, len(item.Photos))
	for _, p := range item.Photos {
		photos = append(photos, toPhotoResponse(p, h.service.PhotoURL(ctx, p)))
	}
	return newItemResponse(item, photos)
}
