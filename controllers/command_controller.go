package controllers

import (
	"net/http"

	"ea-dashboard/models"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
)

// CommandController handles UI-issued commands bound for the terminals
type CommandController struct {
	commands *services.CommandService
}

// NewCommandController creates a new command controller
func NewCommandController(commands *services.CommandService) *CommandController {
	return &CommandController{
		commands: commands,
	}
}

// RegisterRoutes registers the command endpoints
func (cc *CommandController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/robot-toggle", cc.HandleRobotToggle)
	api.POST("/cancel-order", cc.HandleCancelOrder)
}

// HandleRobotToggle queues a robot on/off toggle for an account. The slot
// is last-write-wins; the terminal picks the command up on its next poll.
// POST /api/robot-toggle
func (cc *CommandController) HandleRobotToggle(c *gin.Context) {
	var req struct {
		AccountID string `json:"accountId" binding:"required"`
		NewStatus string `json:"newStatus" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId and newStatus are required",
		})
		return
	}

	if err := cc.commands.IssueToggle(req.AccountID, req.NewStatus); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to queue command",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "command queued for account " + req.AccountID,
	})
}

// HandleCancelOrder queues a pending-order cancellation for an account
// POST /api/cancel-order
func (cc *CommandController) HandleCancelOrder(c *gin.Context) {
	var req struct {
		AccountID string           `json:"accountId" binding:"required"`
		Ticket    models.FlexString `json:"ticket" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId and ticket are required",
		})
		return
	}

	if err := cc.commands.IssueCancel(req.AccountID, string(req.Ticket)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to queue command",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "cancel queued for ticket " + string(req.Ticket),
	})
}
