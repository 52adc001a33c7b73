package controllers

import (
	"net/http"
	"time"

	"ea-dashboard/interfaces"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsController handles the EA rollup calculation and its cache
type StatsController struct {
	store      interfaces.Store
	aggregator *services.Aggregator
	logger     *logrus.Logger
}

// NewStatsController creates a new stats controller
func NewStatsController(store interfaces.Store, aggregator *services.Aggregator) *StatsController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &StatsController{
		store:      store,
		aggregator: aggregator,
		logger:     logger,
	}
}

// RegisterRoutes registers the EA stats endpoints
func (sc *StatsController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/calculate-ea-stats", sc.HandleCalculateEAStats)
	api.GET("/ea-stats", sc.HandleGetEAStats)
}

// HandleCalculateEAStats recomputes the EA rollups from the current
// snapshots and history, overwrites the cache document whole, and returns
// the fresh result.
// GET /api/calculate-ea-stats
func (sc *StatsController) HandleCalculateEAStats(c *gin.Context) {
	accounts, err := sc.store.GetAccountSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	history, err := sc.store.GetTradeHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load history",
			"details": err.Error(),
		})
		return
	}

	now := time.Now()
	stats := sc.aggregator.BuildEAStats(accounts, history, now)

	if err := sc.store.SaveEAStatsCache(stats, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to cache EA stats",
			"details": err.Error(),
		})
		return
	}

	sc.logger.WithFields(logrus.Fields{
		"robots": len(stats),
	}).Info("EA stats recalculated")

	c.JSON(http.StatusOK, gin.H{
		"stats":       stats,
		"generatedAt": now,
	})
}

// HandleGetEAStats returns the cached rollup without recomputing
// GET /api/ea-stats
func (sc *StatsController) HandleGetEAStats(c *gin.Context) {
	stats, generatedAt, err := sc.store.GetEAStatsCache()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load EA stats cache",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":       stats,
		"generatedAt": generatedAt,
	})
}
