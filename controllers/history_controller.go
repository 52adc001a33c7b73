package controllers

import (
	"net/http"
	"time"

	"ea-dashboard/interfaces"
	"ea-dashboard/models"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HistoryController handles trade-history ingress, the activity log and
// the period summaries derived from them.
type HistoryController struct {
	store      interfaces.Store
	aggregator *services.Aggregator
	publisher  *services.Publisher
	logger     *logrus.Logger
}

// NewHistoryController creates a new history controller
func NewHistoryController(store interfaces.Store, aggregator *services.Aggregator, publisher *services.Publisher) *HistoryController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &HistoryController{
		store:      store,
		aggregator: aggregator,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterRoutes registers the history endpoints
func (hc *HistoryController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/log-history", hc.HandleLogHistory)
	api.GET("/get-history", hc.HandleGetHistory)
	api.POST("/log-activity", hc.HandleLogActivity)
	api.GET("/weekly-summary", hc.HandleWeeklySummary)
	api.GET("/monthly-export", hc.HandleMonthlyExport)
}

// HandleLogHistory replaces an account's full trade-history batch.
// Re-submission overwrites the previous batch; that is the canonical
// de-duplication contract.
// POST /api/log-history
func (hc *HistoryController) HandleLogHistory(c *gin.Context) {
	var req struct {
		AccountID string               `json:"accountId" binding:"required"`
		History   []models.TradeRecord `json:"history"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId and history are required",
		})
		return
	}

	accountName := ""
	for i := range req.History {
		if req.History[i].AccountName != "" {
			accountName = req.History[i].AccountName
			break
		}
	}

	if err := hc.store.ReplaceTradeHistory(req.AccountID, accountName, req.History); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save history",
			"details": err.Error(),
		})
		return
	}

	hc.publisher.PublishEvent(models.EventHistoryUpdated, req.AccountID, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "history saved",
		"records": len(req.History),
	})
}

// HandleGetHistory returns all trade history grouped by account
// GET /api/get-history
func (hc *HistoryController) HandleGetHistory(c *gin.Context) {
	history, err := hc.store.GetTradeHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, history)
}

// HandleLogActivity appends one robot-activity observation with a
// server-assigned timestamp
// POST /api/log-activity
func (hc *HistoryController) HandleLogActivity(c *gin.Context) {
	var req struct {
		AccountID   string `json:"accountId" binding:"required"`
		MagicNumber *int64 `json:"magicNumber" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId and magicNumber are required",
		})
		return
	}

	entry := &models.ActivityEntry{
		ID:          uuid.NewString(),
		AccountID:   req.AccountID,
		MagicNumber: *req.MagicNumber,
		Timestamp:   time.Now(),
	}

	if err := hc.store.AppendActivity(entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to log activity",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "activity logged",
	})
}

// parseSince reads the optional client-local cutover timestamp. The reset
// lives in the operator's browser only; it is never persisted here.
func parseSince(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// HandleWeeklySummary aggregates trades closed in the current ISO week
// GET /api/weekly-summary?since=2025-08-01T00:00:00Z
func (hc *HistoryController) HandleWeeklySummary(c *gin.Context) {
	since, ok := parseSince(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "since must be RFC3339",
		})
		return
	}

	history, err := hc.store.GetTradeHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, hc.aggregator.WeeklySummary(history, since, time.Now()))
}

// HandleMonthlyExport aggregates the last 30 days per account, including
// percentage return and activity-derived trade ratios
// GET /api/monthly-export?since=2025-08-01T00:00:00Z
func (hc *HistoryController) HandleMonthlyExport(c *gin.Context) {
	since, ok := parseSince(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "since must be RFC3339",
		})
		return
	}

	accounts, err := hc.store.GetAccountSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	history, err := hc.store.GetTradeHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load history",
			"details": err.Error(),
		})
		return
	}

	activity, err := hc.store.GetAllActivity()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load activity log",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, hc.aggregator.BuildMonthlyExport(accounts, history, activity, since, time.Now()))
}
