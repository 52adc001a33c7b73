package controllers

import (
	"net/http"

	"ea-dashboard/interfaces"
	"ea-dashboard/models"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
)

// DashboardController handles the stored card display order
type DashboardController struct {
	store     interfaces.Store
	publisher *services.Publisher
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(store interfaces.Store, publisher *services.Publisher) *DashboardController {
	return &DashboardController{
		store:     store,
		publisher: publisher,
	}
}

// RegisterRoutes registers the display-order endpoints
func (dc *DashboardController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/save-order", dc.HandleSaveOrder)
	api.GET("/get-order", dc.HandleGetOrder)
}

// HandleSaveOrder persists the operator's drag-and-drop display order.
// The UI applies the order optimistically; on failure it refetches the
// authoritative list from HandleGetOrder.
// POST /api/save-order
func (dc *DashboardController) HandleSaveOrder(c *gin.Context) {
	var req struct {
		Order []string `json:"order" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "order is required",
		})
		return
	}

	if err := dc.store.SaveDashboardOrder(req.Order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save order",
			"details": err.Error(),
		})
		return
	}

	dc.publisher.PublishEvent(models.EventOrderSaved, "", req.Order)

	c.JSON(http.StatusOK, gin.H{
		"message": "order saved",
	})
}

// HandleGetOrder returns the stored display order reconciled with the
// accounts that currently exist: unknown accounts are appended
// alphabetically, stale entries are dropped.
// GET /api/get-order
func (dc *DashboardController) HandleGetOrder(c *gin.Context) {
	stored, err := dc.store.GetDashboardOrder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load order",
			"details": err.Error(),
		})
		return
	}

	accounts, err := dc.store.GetAccountSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": services.MergeDashboardOrder(stored, accounts),
	})
}
