package controllers

import (
	"net/http"

	"ea-dashboard/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSController upgrades dashboard connections into hub clients
type WSController struct {
	hub    *ws.Hub
	logger *logrus.Logger
}

// NewWSController creates a new WebSocket controller
func NewWSController(hub *ws.Hub) *WSController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &WSController{
		hub:    hub,
		logger: logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from a separate origin
		return true
	},
}

// RegisterRoutes registers the WebSocket endpoint
func (wc *WSController) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws", wc.HandleWS)
}

// HandleWS upgrades the connection and starts the client pumps
// GET /ws
func (wc *WSController) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(wc.hub, conn)
	go client.WritePump()
	go client.ReadPump()
}
