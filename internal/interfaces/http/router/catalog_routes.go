package router

import (
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// CatalogHandlers are the handlers mounted under the API group
type CatalogHandlers struct {
	Resources *handler.ResourceHandler
	Counts    *handler.CountHandler
	Media     *handler.MediaHandler
}

// CatalogGroups builds the admin and media route groups.
// admin guards resource and count routes; media guards file delivery.
func CatalogGroups(h CatalogHandlers, admin, media []gin.HandlerFunc) []RouteRegistrar {
	resources := NewDomainGroup("resources", "/resources").Use(admin...)
	resources.GET("", h.Resources.ListResources)
	resources.GET("/:resource/meta", h.Resources.Meta)
	resources.GET("/:resource/counts", h.Counts.Counts)
	resources.GET("/:resource", h.Resources.List)
	resources.POST("/:resource/query", h.Resources.Query)
	resources.POST("/:resource/bulk-delete", h.Resources.BulkDelete)
	resources.POST("/:resource/bulk-update", h.Resources.BulkUpdate)
	resources.GET("/:resource/:id", h.Resources.Get)
	resources.POST("/:resource", h.Resources.Create)
	resources.PUT("/:resource/:id", h.Resources.Update)
	resources.DELETE("/:resource/:id", h.Resources.Delete)

	counts := NewDomainGroup("counts", "/counts").Use(admin...)
	counts.POST("/batch", h.Counts.Batch)

	mediaRoutes := NewDomainGroup("media", "/media").Use(media...)
	mediaRoutes.GET("/resources/:resource", h.Media.Serve)
	mediaRoutes.HEAD("/resources/:resource", h.Media.Serve)

	return []RouteRegistrar{resources, counts, mediaRoutes}
}
