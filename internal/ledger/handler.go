package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for ledger maintenance
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers ledger maintenance routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	ledger := router.Group("/ledger")
	{
		ledger.POST("/rebuild", h.rebuildAll)
		ledger.POST("/rebuild/:projectId", h.rebuildProject)
	}
}

func (h *Handler) rebuildAll(c *gin.Context) {
	report, err := h.service.RebuildAll(c.Request.Context())
	if err != nil {
		h.logger.Error("ledger rebuild failed", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) rebuildProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	repaired, err := h.service.RebuildProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("ledger rebuild failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}
