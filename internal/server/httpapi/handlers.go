package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/service"
)

// Handler serves the sync endpoints.
type Handler struct {
	snapshots service.SnapshotService
	logger    *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(snapshots service.SnapshotService, logger *zap.Logger) *Handler {
	return &Handler{snapshots: snapshots, logger: logger}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type uploadResponse struct {
	Success  bool      `json:"success"`
	LastSync time.Time `json:"lastSync"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health answers the reachability probe. It never consults storage: the probe
// asks "is the server process up", not "is the database healthy".
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Download returns the caller's full snapshot.
func (h *Handler) Download(c *gin.Context) {
	snap, err := h.snapshots.Download(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("snapshot download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load sync data"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Upload merges the caller's snapshot into server storage.
func (h *Handler) Upload(c *gin.Context) {
	var snap model.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid sync payload"})
		return
	}
	ts, err := h.snapshots.Upload(c.Request.Context(), userID(c), &snap)
	if err != nil {
		h.logger.Error("snapshot upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to apply sync data"})
		return
	}
	c.JSON(http.StatusOK, uploadResponse{Success: true, LastSync: ts})
}
