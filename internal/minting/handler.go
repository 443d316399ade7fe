package minting

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for mint requests
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new minting handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers mint request routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/mint-requests")
	{
		requests.POST("", h.createMintRequest)
		requests.POST("/:id/approvals", h.approve)
		requests.POST("/:id/reject", h.reject)
		requests.GET("/project/:projectId", h.listByProject)
		requests.GET("/pending/:verifier", h.listPendingForVerifier)
	}
}

func (h *Handler) createMintRequest(c *gin.Context) {
	var req struct {
		ProjectID uuid.UUID `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateMintRequest(c.Request.Context(), req.ProjectID)
	if err != nil {
		h.logger.Error("failed to create mint request", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mint request id"})
		return
	}

	var req struct {
		Verifier      string `json:"verifier" binding:"required"`
		SettlementRef string `json:"settlement_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Approve(c.Request.Context(), id, req.Verifier, req.SettlementRef)
	if err != nil {
		h.logger.Error("failed to record approval",
			zap.String("request_id", id.String()),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mint request id"})
		return
	}

	if err := h.service.Reject(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to reject mint request",
			zap.String("request_id", id.String()),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(RequestStatusRejected)})
}

func (h *Handler) listByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	list, err := h.service.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list mint requests", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mint_requests": list})
}

func (h *Handler) listPendingForVerifier(c *gin.Context) {
	list, err := h.service.ListPendingForVerifier(c.Request.Context(), c.Param("verifier"))
	if err != nil {
		h.logger.Error("failed to list pending approvals", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mint_requests": list})
}
