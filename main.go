package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/nocturne-works/dataport/api/rest"
	"github.com/nocturne-works/dataport/audit"
	"github.com/nocturne-works/dataport/cache"
	"github.com/nocturne-works/dataport/config"
	dbadapter "github.com/nocturne-works/dataport/db"
	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/game/loot"
	"github.com/nocturne-works/dataport/game/progression"
	"github.com/nocturne-works/dataport/game/quest"
	"github.com/nocturne-works/dataport/game/shop"
	mw "github.com/nocturne-works/dataport/middleware"
	"github.com/nocturne-works/dataport/model"
	"github.com/nocturne-works/dataport/resource"
	"github.com/nocturne-works/dataport/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache ----
	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("cache initialized")

	// ---- Reference data ----
	if cfg.Resource.DataDir != "" {
		loader := resource.NewLoader(cfg.Resource.DataDir, db, c, logger)
		if err := loader.Load(); err != nil {
			log.Fatalf("resource: %v", err)
		}
	}

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("audit_retention", 24*time.Hour, func() {
		n, err := auditSvc.Purge(context.Background(), cfg.Audit.Retention)
		if err != nil {
			logger.Error("audit purge failed", zap.Error(err))
			return
		}
		logger.Info("audit purged", zap.Int64("rows", n))
	})

	// ---- Game services ----
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	invSvc := inventory.NewService(db, cfg.Game.InventorySlots, logger)
	progSvc := progression.NewService(db, logger)
	questSvc := quest.NewService(db, invSvc, progSvc, logger)
	shopSvc := shop.NewService(db, invSvc, logger)
	lootSvc := loot.NewService(rng, cfg.Game.LootRollMax, logger)

	// ---- Handlers ----
	charH := apirest.NewCharacterHandler(db, progSvc, logger)
	worldH := apirest.NewWorldHandler(db, logger)
	questH := apirest.NewQuestHandler(db, charH, questSvc, auditSvc, logger)
	shopH := apirest.NewShopHandler(db, charH, shopSvc, c, cfg.Cache.ReferenceTTL, auditSvc, logger)
	invH := apirest.NewInventoryHandler(db, charH, invSvc, logger)
	lootH := apirest.NewLootHandler(db, charH, lootSvc, invSvc, rng, cfg.Game.LootRollMax, logger)
	instH := apirest.NewInstanceHandler(db, charH, progSvc, logger)

	// ---- Gin HTTP server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.GET("/datacenters", worldH.ListDatacenters)
	v1.GET("/instances", instH.List)
	v1.GET("/shops/:id", shopH.Detail)

	player := v1.Group("/characters", mw.Identity())
	player.GET("/:id", charH.Get)
	player.POST("/:id/move", charH.Move)
	player.POST("/:id/playtime", charH.AddPlaytime)
	player.POST("/:id/instance", charH.EnterInstance)
	player.DELETE("/:id/instance", charH.LeaveInstance)
	player.GET("/:id/instances/:instance_id", instH.State)
	player.GET("/:id/inventory", invH.List)
	player.POST("/:id/inventory/discard", invH.Discard)
	player.GET("/:id/quests/available", questH.Available)
	player.POST("/:id/quests/:quest_id/accept", questH.Accept)
	player.POST("/:id/quests/:quest_id/advance", questH.Advance)
	player.POST("/:id/purchase", shopH.Purchase)
	player.POST("/:id/defeat", lootH.Defeat)

	admin := v1.Group("/admin", mw.IPAllowlist(cfg.Security.AdminAllowlist), mw.AdminKey(cfg.Server.AdminKey))
	admin.GET("/characters", charH.List)
	admin.POST("/characters", charH.Create)
	admin.POST("/characters/:id/inventory", invH.Grant)
	admin.POST("/characters/:id/instances/:instance_id/unlock", instH.Unlock)
	admin.POST("/characters/:id/instances/:instance_id/clear", instH.Clear)
	admin.POST("/datacenters", worldH.RegisterDatacenter)
	admin.POST("/datacenters/:id/game_servers", worldH.RegisterGameServer)
	admin.POST("/areas", worldH.RegisterArea)

	logger.Info("dataport listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
