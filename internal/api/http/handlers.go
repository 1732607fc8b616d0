package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filedeck/internal/providers/archive"
	"github.com/GriffinCanCode/filedeck/internal/providers/fetch"
	"github.com/GriffinCanCode/filedeck/internal/providers/importer"
)

// MaxBodyBytes caps import and upload bodies.
const MaxBodyBytes = 32 << 20

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	ws      *command.Workspace
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(ws *command.Workspace, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{ws: ws, metrics: metrics, logger: logger}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "FileDeck",
		"version": Version,
	})
}

// Health reports tree and subscriber state
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"tree":        h.ws.Stats(),
		"subscribers": h.ws.Notifier().Subscribers(),
	})
}

// Catalog lists every action with its parameters
func (h *Handlers) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": command.Catalog()})
}

// Stats returns tree statistics and the running metric totals
func (h *Handlers) Stats(c *gin.Context) {
	resp := gin.H{"tree": h.ws.Stats()}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// ============================================================================
// Helpers
// ============================================================================

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tree.ErrFolderNotFound),
		errors.Is(err, command.ErrNotInView),
		errors.Is(err, command.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrInvalidDocument),
		errors.Is(err, persistence.ErrLinkImport),
		errors.Is(err, archive.ErrCorrupt),
		errors.Is(err, archive.ErrTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, command.ErrUnknownAction),
		errors.Is(err, command.ErrNotFile),
		errors.Is(err, command.ErrUnknownExport),
		errors.Is(err, command.ErrNothingChosen),
		errors.Is(err, command.ErrMissingDest),
		errors.Is(err, persistence.ErrEmptyInput),
		errors.Is(err, archive.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrNotDirectory),
		errors.Is(err, tree.ErrDuplicateID):
		return http.StatusBadRequest
	case errors.Is(err, fetch.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseIDs reads "1,2,3" into ids.
func parseIDs(raw string) ([]tree.ID, error) {
	var ids []tree.ID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New("invalid id: " + part)
		}
		ids = append(ids, tree.ID(v))
	}
	return ids, nil
}

func parseID(c *gin.Context) (tree.ID, bool) {
	v, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, errors.New("invalid id: "+c.Param("id")))
		return 0, false
	}
	return tree.ID(v), true
}

func attach(c *gin.Context, exp command.Export) {
	c.Header("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(exp.Filename, `"`, "'")+`"`)
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}
