// Package handler implements the public HTTP surface's request handlers
// (§6), thin adapters from gin.Context onto the Catalog and the C8 views.
// Grounded on the teacher's internal/api/handler package layout, one file
// per resource, each handler depending on the catalog/views directly rather
// than a service-layer interface since the teacher's own service layer
// (internal/service) was itself a thin GORM pass-through for these reads.
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lumina/internal/api"
	"lumina/internal/apperr"
	"lumina/internal/catalog"
	"lumina/internal/filter"
	"lumina/internal/task"
	"lumina/internal/views"
)

// MediaHandler answers the media list/detail/derivative/timeline/tree
// endpoints of §6.
type MediaHandler struct {
	cat     *catalog.Catalog
	dataDir string
}

func NewMediaHandler(cat *catalog.Catalog, dataDir string) *MediaHandler {
	return &MediaHandler{cat: cat, dataDir: dataDir}
}

// MediaListResponse is the paginated envelope for GET /media.
type MediaListResponse struct {
	Media []catalog.Media `json:"media"`
	Total int64           `json:"total"`
}

// List handles GET /media?query=<filter-string>.
func (h *MediaHandler) List(c *gin.Context) {
	q, err := filter.Parse(c.Query("query"), views.MediaFields)
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	results, total, err := views.QueryMedia(c.Request.Context(), h.cat, q)
	if err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, MediaListResponse{Media: results, Total: total})
}

// MediaDetail is the full-entity response for GET /media/{uuid}.
type MediaDetail struct {
	catalog.Media
	Tags           []catalog.Tag             `json:"tags,omitempty"`
	Extra          *catalog.MediaExtra       `json:"media_extra,omitempty"`
	CustomMetadata []catalog.CustomMetadata  `json:"custom_metadata,omitempty"`
}

// Get handles GET /media/{uuid}?extra=true.
func (h *MediaHandler) Get(c *gin.Context) {
	m, err := h.mediaFromParam(c)
	if err != nil {
		return
	}
	detail := MediaDetail{Media: *m}

	if c.Query("extra") == "true" {
		ctx := c.Request.Context()
		if tags, err := h.cat.TagsForMedia(ctx, m.ID); err == nil {
			detail.Tags = tags
		}
		if extra, err := h.cat.ExtraForMedia(ctx, m.ID); err == nil {
			detail.Extra = extra
		}
		if custom, err := h.cat.LatestCustomMetadata(ctx, m.ID); err == nil {
			detail.CustomMetadata = custom
		}
	}
	api.GinSuccess(c, detail)
}

// Full serves the native-resolution derivative written by the Thumbnail
// task directly from the data directory — generated app output, not source
// media, so it needs no broker round trip (§4.7's privilege boundary is
// about reading files outside dataDir).
func (h *MediaHandler) Full(c *gin.Context) {
	h.serveDerivative(c, true)
}

// Thumb serves the bounded-size derivative the same way Full does.
func (h *MediaHandler) Thumb(c *gin.Context) {
	h.serveDerivative(c, false)
}

func (h *MediaHandler) serveDerivative(c *gin.Context, full bool) {
	m, err := h.mediaFromParam(c)
	if err != nil {
		return
	}
	if !m.HasThumbnail {
		api.GinFromError(c, apperr.NotFound(errors.New("handler: media has no derivative")))
		return
	}
	c.File(task.DerivativePath(h.dataDir, m, full))
}

// Timeline handles GET /media/timeline?query=…&interval=month|day|hour.
func (h *MediaHandler) Timeline(c *gin.Context) {
	q, err := filter.Parse(c.Query("query"), views.MediaFields)
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	interval := views.Interval(c.DefaultQuery("interval", string(views.IntervalMonth)))
	buckets, err := views.Timeline(c.Request.Context(), h.cat, q, interval)
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	api.GinSuccess(c, buckets)
}

// Tree handles GET /directory_tree.
func (h *MediaHandler) Tree(c *gin.Context) {
	tree, err := views.DirectoryTree(c.Request.Context(), h.cat)
	if err != nil {
		api.GinFromError(c, apperr.NotFound(err))
		return
	}
	api.GinSuccess(c, tree)
}

// mediaFromParam resolves the :uuid path param, writing an error response
// and returning a non-nil error if it can't.
func (h *MediaHandler) mediaFromParam(c *gin.Context) (*catalog.Media, error) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		wrapped := apperr.Validation(err)
		api.GinFromError(c, wrapped)
		return nil, wrapped
	}
	m, err := h.cat.MediaFromUUID(c.Request.Context(), id)
	if err != nil {
		var wrapped error
		if errors.Is(err, catalog.ErrNotFound) {
			wrapped = apperr.NotFound(err)
		} else {
			wrapped = err
		}
		api.GinFromError(c, wrapped)
		return nil, wrapped
	}
	return m, nil
}

// errBadID is returned by parsePositiveInt for a malformed or non-positive id.
var errBadID = errors.New("handler: id must be a positive integer")

// parsePositiveInt is shared by handlers that accept an id path param.
func parsePositiveInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errBadID
	}
	return n, nil
}
