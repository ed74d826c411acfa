// Package http provides the HTTP API for the kilnlog item catalog.
//
// This package implements a RESTful JSON API over the catalog service with
// bearer-token authentication and signed-URL blob delivery.
//
// # Features
//
//   - Bearer-token authentication via pluggable TokenProvider backends
//   - Owner-scoped item CRUD under /api/items
//   - Photo upload (multipart), details update, primary selection, delete
//   - Signed, time-limited blob URLs served from /blobs
//   - JSON error responses mapped from the service error taxonomy
//   - Configurable CORS support
//
// # Authentication
//
// API routes resolve the Authorization bearer token to a caller identity:
//
//	provider := identity.NewMapProvider(map[string]kilnlog.Identity{
//	    "kl_2f7c...": {OwnerID: "potter-1"},
//	})
//	router.Use(http.AuthMiddleware(provider))
//
// The /blobs route authenticates with the expires/sig query parameters
// produced by kilnlog.URLSigner instead of a bearer token, so signed URLs
// work from plain <img> tags.
//
// # Usage
//
// Create a handler with HandlerConfig:
//
//	handlerCfg := http.HandlerConfig{
//	    Provider: provider,
//	    Signer:   signer,
//	}
//	handler := http.NewHandler(&handlerCfg, service, blobStore)
//	router := handler.Router()
//	http.ListenAndServe(":8080", router)
//
// The service parameter must implement the Service interface; the blob store
// must implement BlobOpener for the /blobs route.
//
// # Error Mapping
//
//   - not found (including foreign-owner lookups): 404
//   - validation failure: 422
//   - unauthorized: 401
//   - store unavailable: 503
//   - upstream or invariant failure: 500
package http
