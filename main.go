package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ea-dashboard/config"
	"ea-dashboard/controllers"
	"ea-dashboard/database"
	"ea-dashboard/middleware"
	"ea-dashboard/services"
	"ea-dashboard/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.LoadConfig()

	store, err := database.NewDocumentStore(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open document store")
	}
	defer store.Close()

	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// With Redis configured, change events go through Redis pub/sub and the
	// bridge fans them back into the local hub. Single-instance deployments
	// publish straight to the hub.
	var sink services.Sink = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		sink = services.NewRedisSink(rdb)

		bridge := ws.NewPubSubManager(rdb, hub, services.AccountsChannel)
		go bridge.Run(ctx)

		logger.WithFields(logrus.Fields{
			"addr": cfg.RedisAddr,
		}).Info("Redis change-event bridge enabled")
	}

	publisher := services.NewPublisher(sink)
	aggregator := services.NewAggregator(cfg.NoEASentinel)
	commands := services.NewCommandService(store, publisher)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", middleware.APIKey(cfg.APIKey))

	controllers.NewAccountController(store, aggregator, commands, publisher).RegisterRoutes(api)
	controllers.NewCommandController(commands).RegisterRoutes(api)
	controllers.NewHistoryController(store, aggregator, publisher).RegisterRoutes(api)
	controllers.NewDashboardController(store, publisher).RegisterRoutes(api)
	controllers.NewStatsController(store, aggregator).RegisterRoutes(api)
	controllers.NewWSController(hub).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.ServerPort,
		}).Info("EA dashboard relay started")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
