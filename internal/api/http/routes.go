package http

import "github.com/gin-gonic/gin"

// Register mounts the API under r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")

	// Current folder and navigation
	api.GET("/view", h.View)
	api.POST("/open", h.OpenLink)
	api.POST("/navigate", h.Navigate)
	api.POST("/back", h.Back)
	api.POST("/forward", h.Forward)

	// Selection and context menu
	api.POST("/click", h.Click)
	api.POST("/mode", h.ToggleMode)
	api.DELETE("/selection", h.ClearSelection)
	api.GET("/actions", h.Catalog)
	api.POST("/actions", h.Execute)
	api.POST("/files", h.CreateFile)
	api.POST("/folders", h.CreateFolder)

	// Transfer
	api.GET("/export", h.Export)
	api.GET("/document", h.Document)
	api.POST("/import", h.Import)
	api.POST("/import/link", h.ImportLink)
	api.GET("/share", h.Share)
	api.GET("/archive", h.Archive)
	api.GET("/files/:id/download", h.Download)
	api.POST("/upload", h.Upload)

	// Introspection
	api.GET("/search", h.Search)
	api.GET("/stats", h.Stats)
}
