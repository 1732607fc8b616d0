package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

// Export downloads the whole tree as filesystem.json or filesystem.yaml
func (h *Handlers) Export(c *gin.Context) {
	exp, err := h.ws.ExportTree(c.DefaultQuery("format", "json"))
	if err != nil {
		h.fail(c, err)
		return
	}
	attach(c, exp)
}

// Document shows the saved document inline, for inspecting the raw data.
func (h *Handlers) Document(c *gin.Context) {
	exp, err := h.ws.ExportTree("json")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}

// Import replaces the tree with an uploaded document. The body is either
// a multipart "file" field or the document itself; YAML is recognised by
// content type or file extension.
func (h *Handlers) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	data, name, err := readDocument(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		badRequest(c, persistence.ErrEmptyInput)
		return
	}

	ctx := c.Request.Context()
	if isYAML(c.ContentType(), name) {
		err = h.ws.ImportYAML(ctx, data)
	} else {
		err = h.ws.ImportJSON(ctx, data)
	}
	if err != nil {
		h.logger.Warn("Import rejected", zap.String("name", name), zap.Error(err))
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true, "view": h.ws.View()})
}

// ImportLink replaces the tree from raw JSON, a share link or a remote URL
func (h *Handlers) ImportLink(c *gin.Context) {
	var req types.ImportLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.ws.ImportLink(c.Request.Context(), req.Input); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true, "view": h.ws.View()})
}

// Share returns a link that carries the whole tree
func (h *Handlers) Share(c *gin.Context) {
	link, err := h.ws.ShareLink()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link, "length": len(link)})
}

// Archive downloads the given ids, or the selection, as an archive
// without changing the tree.
func (h *Handlers) Archive(c *gin.Context) {
	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		badRequest(c, err)
		return
	}
	exp, err := h.ws.ExportArchive(ids, c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	attach(c, exp)
}

// Download returns a file's content
func (h *Handlers) Download(c *gin.Context) {
	nodeID, ok := parseID(c)
	if !ok {
		return
	}
	exp, err := h.ws.Download(nodeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	attach(c, exp)
}

// Upload stores multipart "file" fields as new files in the current folder
func (h *Handlers) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file field in upload"})
		return
	}

	created := make([]gin.H, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		f, err := h.ws.Upload(c.Request.Context(), fh.Filename, data)
		if err != nil {
			h.fail(c, err)
			return
		}
		created = append(created, gin.H{"id": f.ID, "name": f.Name, "size": len(data)})
	}
	c.JSON(http.StatusCreated, gin.H{"files": created})
}

// ============================================================================
// Helpers
// ============================================================================

func readDocument(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", persistence.ErrInvalidDocument, err)
		}
		data, err := readPart(fh)
		return data, fh.Filename, err
	}
	data, err := io.ReadAll(c.Request.Body)
	return data, "", err
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isYAML(contentType, name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return strings.Contains(contentType, "yaml")
}
