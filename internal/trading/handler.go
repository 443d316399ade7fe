package trading

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for trading and retirement
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers trading routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	buys := router.Group("/buy-requests")
	{
		buys.POST("", h.createBuyRequest)
		buys.POST("/:id/approve", h.approveBuy)
		buys.GET("/company/:companyId", h.listByCompany)
		buys.GET("/pending/:wallet", h.listPendingForOwner)
	}

	router.POST("/retirements", h.retire)
	router.GET("/companies/:id/balance/:projectId", h.getCompanyBalance)
	router.GET("/companies/:id/transactions", h.listTransactions)
}

func (h *Handler) createBuyRequest(c *gin.Context) {
	var req CreateBuyRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.CreateBuyRequest(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to create buy request", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *Handler) approveBuy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buy request id"})
		return
	}

	var req struct {
		SettlementRef string `json:"settlement_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.ApproveBuy(c.Request.Context(), id, req.SettlementRef)
	if err != nil {
		h.logger.Error("failed to approve buy request",
			zap.String("request_id", id.String()),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *Handler) listByCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	list, err := h.service.ListBuyRequestsByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list buy requests", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buy_requests": list})
}

func (h *Handler) listPendingForOwner(c *gin.Context) {
	list, err := h.service.ListPendingForOwner(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		h.logger.Error("failed to list owner buy requests", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buy_requests": list})
}

func (h *Handler) retire(c *gin.Context) {
	var req RetireInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Retire(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to retire credits", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getCompanyBalance(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	balance, err := h.service.GetCompanyBalance(c.Request.Context(), companyID, projectID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *Handler) listTransactions(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	list, err := h.service.ListTransactions(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list transactions", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
