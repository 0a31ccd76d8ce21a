package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gogserver/bank"
	"gogserver/database"
	"gogserver/feed"
	"gogserver/handlers"
	"gogserver/history"
	"gogserver/internal/game"
	"gogserver/middlewares"
	"gogserver/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("failed to load config.json", zap.Error(err))
	}
	if config.AdminUserID == "" {
		logger.Fatal("admin_user_id must be set in config.json")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	// Initialize PostgreSQL and Redis concurrently.
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("failed to initialize PostgreSQL", zap.Error(err))
		}
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	<-done
	<-done

	// Wire the game core: postgres-backed custody, websocket feed and the
	// history recorder as event sinks.
	tokenBank := bank.NewPostgres(db)
	hub := feed.NewHub(logger)
	recorder := history.NewRecorder(db, logger)
	go recorder.Run(context.Background())

	ledger := game.NewLedger(tokenBank, game.Config{
		Admin:          config.AdminUserID,
		Asset:          config.AssetSymbol,
		DecisionWindow: time.Duration(config.DecisionWindowSeconds) * time.Second,
		Sink:           game.MultiSink{hub, recorder},
	}, logger)

	go utils.CronSweeper(ledger, db, logger)

	router := gin.Default()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://192.168.1.1:8080"}, // set to the deployed frontend origin
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/auth/register", func(c *gin.Context) {
		handlers.Register(c, db, logger)
	})
	router.GET("/home", func(c *gin.Context) {
		handlers.Home(c, ledger, hub)
	})
	router.GET("/rooms/:id", func(c *gin.Context) {
		handlers.RoomInfo(c, ledger, db, logger)
	})
	router.GET("/ws", func(c *gin.Context) {
		feed.HandleConnections(c.Request.Context(), c.Writer, c.Request, rdb, hub, upgrader, logger)
	})

	authed := router.Group("/", middlewares.AuthMiddleware(logger))
	authed.POST("/rooms", func(c *gin.Context) {
		handlers.CreateRoom(c, ledger, logger)
	})
	authed.PUT("/rooms/:id/join", func(c *gin.Context) {
		handlers.JoinRoom(c, ledger, logger)
	})
	authed.PUT("/rooms/:id/decision", func(c *gin.Context) {
		handlers.MakeDecision(c, ledger, logger)
	})
	authed.POST("/rooms/:id/resolve", func(c *gin.Context) {
		handlers.ForceResolve(c, ledger, logger)
	})
	authed.POST("/admin/withdraw", func(c *gin.Context) {
		handlers.Withdraw(c, ledger, logger)
	})
	authed.POST("/bank/approve", func(c *gin.Context) {
		handlers.Approve(c, tokenBank, logger)
	})
	authed.POST("/bank/faucet", func(c *gin.Context) {
		handlers.Faucet(c, tokenBank, logger)
	})
	authed.GET("/bank/balance", func(c *gin.Context) {
		handlers.Balance(c, tokenBank, logger)
	})

	router.Run()
}
