package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"ea-dashboard/interfaces"
	"ea-dashboard/models"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccountController handles terminal snapshot ingress and account reads
type AccountController struct {
	store      interfaces.Store
	aggregator *services.Aggregator
	commands   *services.CommandService
	publisher  *services.Publisher
	logger     *logrus.Logger
}

// NewAccountController creates a new account controller
func NewAccountController(store interfaces.Store, aggregator *services.Aggregator, commands *services.CommandService, publisher *services.Publisher) *AccountController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &AccountController{
		store:      store,
		aggregator: aggregator,
		commands:   commands,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterRoutes registers the account endpoints
func (ac *AccountController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/update", ac.HandleUpdate)
	api.GET("/accounts", ac.HandleGetAccounts)
	api.POST("/delete-account", ac.HandleDeleteAccount)
	api.GET("/summary", ac.HandleGetSummary)
}

// extractJSONObject pulls the first balanced {...} span out of a raw
// terminal payload, tolerating NUL bytes and stray framing bytes around
// the object. ok is false when no balanced object exists.
func extractJSONObject(raw []byte) ([]byte, bool) {
	cleaned := bytes.ReplaceAll(raw, []byte{0}, nil)

	start := bytes.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		ch := cleaned[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return cleaned[start : i+1], true
			}
		}
	}

	return nil, false
}

// HandleUpdate receives a full account snapshot pushed by a terminal,
// replaces the stored document and returns any pending command (consumed).
// POST /api/update
func (ac *AccountController) HandleUpdate(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to read request body",
		})
		return
	}

	// Terminals occasionally wrap the object in garbage bytes
	body, ok := extractJSONObject(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no JSON object found in body",
		})
		return
	}

	var snap models.AccountSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid snapshot payload",
			"details": err.Error(),
		})
		return
	}

	if snap.AccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId is required",
		})
		return
	}

	if err := ac.store.SaveAccountSnapshot(&snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save snapshot",
			"details": err.Error(),
		})
		return
	}

	ac.logger.WithFields(logrus.Fields{
		"account_id": snap.AccountID,
		"positions":  len(snap.Positions),
		"orders":     len(snap.Orders),
	}).Info("Snapshot updated")

	ac.publisher.PublishEvent(models.EventAccountUpdated, snap.AccountID, &snap)

	// Relay any pending command back to the terminal. A consume failure
	// must not fail the update; the command stays queued for the next poll.
	cmd, err := ac.commands.Consume(snap.AccountID)
	if err != nil {
		ac.logger.WithError(err).Warn("Failed to consume pending command")
	}
	if cmd != nil {
		c.JSON(http.StatusOK, cmd)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"command": "none",
	})
}

// HandleGetAccounts returns the full map of stored snapshots
// GET /api/accounts
func (ac *AccountController) HandleGetAccounts(c *gin.Context) {
	accounts, err := ac.store.GetAccountSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// HandleDeleteAccount removes an account's snapshot, pending command,
// history and activity log
// POST /api/delete-account
func (ac *AccountController) HandleDeleteAccount(c *gin.Context) {
	var req struct {
		AccountID string `json:"accountId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "accountId is required",
		})
		return
	}

	if err := ac.store.DeleteAccount(req.AccountID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to delete account",
			"details": err.Error(),
		})
		return
	}

	ac.logger.WithFields(logrus.Fields{
		"account_id": req.AccountID,
	}).Info("Account deleted")

	ac.publisher.PublishEvent(models.EventAccountDeleted, req.AccountID, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "account deleted",
	})
}

// HandleGetSummary returns the aggregated dashboard header numbers
// GET /api/summary
func (ac *AccountController) HandleGetSummary(c *gin.Context) {
	accounts, err := ac.store.GetAccountSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ac.aggregator.GlobalSummary(accounts))
}
