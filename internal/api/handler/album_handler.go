package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lumina/internal/api"
	"lumina/internal/apperr"
	"lumina/internal/catalog"
)

// AlbumHandler answers the album CRUD and membership endpoints of §6, built
// directly against the catalog's Album/AlbumMedia tables.
type AlbumHandler struct {
	cat *catalog.Catalog
}

func NewAlbumHandler(cat *catalog.Catalog) *AlbumHandler {
	return &AlbumHandler{cat: cat}
}

// List handles GET /album.
func (h *AlbumHandler) List(c *gin.Context) {
	albums, err := h.cat.ListAlbums(c.Request.Context())
	if err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, albums)
}

type createAlbumRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /album.
func (h *AlbumHandler) Create(c *gin.Context) {
	var req createAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	a := &catalog.Album{Name: req.Name}
	if err := h.cat.CreateAlbum(c.Request.Context(), a); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	api.GinSuccess(c, a)
}

// Get handles GET /album/{id}, returning the album plus its media.
func (h *AlbumHandler) Get(c *gin.Context) {
	id, err := parsePositiveInt(c.Param("id"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	ctx := c.Request.Context()
	a, err := h.cat.AlbumFromID(ctx, id)
	if err != nil {
		h.respondAlbumLookupError(c, err)
		return
	}
	media, err := h.cat.MediaInAlbum(ctx, id)
	if err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, gin.H{"album": a, "media": media})
}

// Delete handles DELETE /album/{id}.
func (h *AlbumHandler) Delete(c *gin.Context) {
	id, err := parsePositiveInt(c.Param("id"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	if err := h.cat.DeleteAlbum(c.Request.Context(), id); err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, gin.H{"deleted": true})
}

type albumMediaRequest struct {
	MediaID int64 `json:"media_id" binding:"required"`
}

// AddMedia handles POST /album/{id}/media.
func (h *AlbumHandler) AddMedia(c *gin.Context) {
	id, err := parsePositiveInt(c.Param("id"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	var req albumMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	if err := h.cat.AddMediaToAlbum(c.Request.Context(), id, req.MediaID); err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, gin.H{"added": true})
}

// RemoveMedia handles DELETE /album/{id}/media.
func (h *AlbumHandler) RemoveMedia(c *gin.Context) {
	id, err := parsePositiveInt(c.Param("id"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	var req albumMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	if err := h.cat.RemoveMediaFromAlbum(c.Request.Context(), id, req.MediaID); err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, gin.H{"removed": true})
}

func (h *AlbumHandler) respondAlbumLookupError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		api.GinFromError(c, apperr.NotFound(err))
		return
	}
	api.GinFromError(c, apperr.Busy(err))
}
