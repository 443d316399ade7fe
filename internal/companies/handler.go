package companies

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for the company registry
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new companies handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers company registry routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies")
	{
		companies.POST("", h.register)
		companies.GET("/pending", h.listPending)
		companies.POST("/:id/status", h.setStatus)
		companies.GET("/:id", h.getCompany)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to register company", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"company_id": company.ID,
		"status":     company.Status,
	})
}

func (h *Handler) setStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	var req struct {
		Status CompanyStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to set company status", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      company.Status,
		"is_verified": company.IsVerified,
	})
}

func (h *Handler) getCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	company, err := h.service.GetCompany(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, company)
}

func (h *Handler) listPending(c *gin.Context) {
	companies, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list pending companies", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies})
}
