package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

// View renders the current folder
func (h *Handlers) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.ws.View())
}

// OpenLinkRequest carries the fragment of the URL a client was opened with.
type OpenLinkRequest struct {
	Fragment string `json:"fragment"`
}

// OpenLink consumes a share-link fragment. scrub tells the client to clear
// the fragment from its address bar.
func (h *Handlers) OpenLink(c *gin.Context) {
	var req OpenLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	loaded, err := h.ws.OpenLink(c.Request.Context(), req.Fragment)
	if err != nil {
		// An unreadable link falls back to the current tree, like startup.
		c.JSON(http.StatusOK, gin.H{"loaded": false, "scrub": true, "error": err.Error(), "view": h.ws.View()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": loaded, "scrub": loaded, "view": h.ws.View()})
}

// Navigate moves to a folder path
func (h *Handlers) Navigate(c *gin.Context) {
	var req types.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	path, err := tree.ParsePath(req.Path)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.ws.Navigate(c.Request.Context(), path); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.View())
}

// Back steps back in history
func (h *Handlers) Back(c *gin.Context) {
	moved := h.ws.Back(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"moved": moved, "view": h.ws.View()})
}

// Forward steps forward in history
func (h *Handlers) Forward(c *gin.Context) {
	moved := h.ws.Forward(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"moved": moved, "view": h.ws.View()})
}

// Click selects an item and returns its context-menu scope
func (h *Handlers) Click(c *gin.Context) {
	var req types.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	scope, err := h.ws.Click(tree.ID(req.ID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "selected": h.ws.Selected()})
}

// ToggleMode flips multi-select
func (h *Handlers) ToggleMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.ws.ToggleMultiSelect()})
}

// ClearSelection empties the selection
func (h *Handlers) ClearSelection(c *gin.Context) {
	h.ws.ClearSelection()
	c.Status(http.StatusNoContent)
}

// Execute runs a context-menu action
func (h *Handlers) Execute(c *gin.Context) {
	var req types.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, command.Action(req.Action), req)
}

// CreateFile creates a file in the current folder
func (h *Handlers) CreateFile(c *gin.Context) {
	h.create(c, command.ActionCreateFile)
}

// CreateFolder creates a folder in the current folder
func (h *Handlers) CreateFolder(c *gin.Context) {
	h.create(c, command.ActionCreateFolder)
}

func (h *Handlers) create(c *gin.Context, action command.Action) {
	var req types.CreateRequest
	// The body is optional; names fall back to the defaults.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.execute(c, action, types.ActionRequest{Action: string(action), Name: req.Name, Text: req.Text})
}

func (h *Handlers) execute(c *gin.Context, action command.Action, req types.ActionRequest) {
	params, err := command.ParamsFromRequest(req)
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.ws.Execute(c.Request.Context(), action, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Search matches names across the tree with a glob pattern
func (h *Handlers) Search(c *gin.Context) {
	pattern := c.Query("q")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	matches, err := h.ws.Search(pattern)
	if err != nil {
		badRequest(c, err)
		return
	}

	results := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		results = append(results, gin.H{
			"id":     m.Node.NodeID(),
			"name":   m.Node.NodeName(),
			"type":   m.Node.Kind(),
			"path":   m.NamePath,
			"parent": m.Parent.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"query": pattern, "results": results})
}
