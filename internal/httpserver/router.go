// Package httpserver assembles the public HTTP surface (§6) from
// internal/api's response helpers and internal/api/handler's per-resource
// handlers. It is a separate package from internal/api because the handlers
// import internal/api for response helpers — wiring them together here
// avoids a package import cycle.
package httpserver

import (
	"github.com/gin-gonic/gin"

	"lumina/internal/api/handler"
	"lumina/internal/broker"
	"lumina/internal/catalog"
	"lumina/internal/state"
)

// NewRouter assembles the public HTTP surface (§6) into a gin.Engine: plain
// JSON endpoints for catalog reads/writes, the stream sub-router for
// byte-ranged raw media, and a Prometheus scrape endpoint. Grounded on the
// teacher's internal/api/router.go constructor-and-wire pattern, generalized
// from its per-controller interfaces to this repo's catalog-backed handlers.
func NewRouter(cat *catalog.Catalog, dataDir string, brokerClient *broker.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	media := handler.NewMediaHandler(cat, dataDir)
	tag := handler.NewTagHandler(cat)
	album := handler.NewAlbumHandler(cat)
	status := handler.NewStatusHandler(brokerClient)

	r.GET("/info", status.Info)
	r.GET("/queue-status", status.QueueStatus)
	r.GET("/health", status.Health)

	r.GET("/media", media.List)
	r.GET("/media/timeline", media.Timeline)
	r.GET("/media/:uuid", media.Get)
	r.GET("/media/:uuid/full", media.Full)
	r.GET("/media/:uuid/thumb", media.Thumb)
	r.GET("/directory_tree", media.Tree)

	r.GET("/tag", tag.List)
	r.POST("/tag/:name/media", tag.AddToMedia)
	r.DELETE("/tag/:name/media", tag.RemoveFromMedia)
	r.DELETE("/tag/:name", tag.Delete)

	r.GET("/album", album.List)
	r.POST("/album", album.Create)
	r.GET("/album/:id", album.Get)
	r.DELETE("/album/:id", album.Delete)
	r.POST("/album/:id/media", album.AddMedia)
	r.DELETE("/album/:id/media", album.RemoveMedia)

	streamRouter := NewStreamRouter(cat, brokerClient)
	r.GET("/media/:uuid/raw", gin.WrapH(streamRouter))
	r.HEAD("/media/:uuid/raw", gin.WrapH(streamRouter))

	r.GET("/metrics", gin.WrapH(state.MetricsHandler()))

	return r
}
