package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lumina/internal/api"
	"lumina/internal/apperr"
	"lumina/internal/catalog"
)

// TagHandler answers the tag list/membership/delete endpoints of §6.
type TagHandler struct {
	cat *catalog.Catalog
}

func NewTagHandler(cat *catalog.Catalog) *TagHandler {
	return &TagHandler{cat: cat}
}

// List handles GET /tag.
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.cat.ListTags(c.Request.Context())
	if err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, tags)
}

type addTagRequest struct {
	MediaID int64 `json:"media_id" binding:"required"`
}

// AddToMedia handles POST /tag/{name}/media.
func (h *TagHandler) AddToMedia(c *gin.Context) {
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	ctx := c.Request.Context()
	t, err := h.cat.EnsureTag(ctx, c.Param("name"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	if err := h.cat.AddTagToMedia(ctx, req.MediaID, t.ID, nil); err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, t)
}

// RemoveFromMedia handles DELETE /tag/{name}/media.
func (h *TagHandler) RemoveFromMedia(c *gin.Context) {
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	ctx := c.Request.Context()
	t, err := h.cat.TagFromName(ctx, c.Param("name"))
	if err != nil {
		h.respondTagLookupError(c, err)
		return
	}
	if err := h.cat.RemoveTagFromMedia(ctx, req.MediaID, t.ID); err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, gin.H{"removed": true})
}

// Delete handles DELETE /tag/{name}.
func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.cat.DeleteTag(c.Request.Context(), c.Param("name")); err != nil {
		h.respondTagLookupError(c, err)
		return
	}
	api.GinSuccess(c, gin.H{"deleted": true})
}

func (h *TagHandler) respondTagLookupError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		api.GinFromError(c, apperr.NotFound(err))
		return
	}
	api.GinFromError(c, apperr.Busy(err))
}
