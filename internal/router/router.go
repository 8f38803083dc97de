package router

import (
	"time"

	"flowmrp/internal/config"
	"flowmrp/internal/handler"
	"flowmrp/internal/middleware"
	"flowmrp/internal/repository"
	"flowmrp/internal/service"
	"flowmrp/internal/session"
	"flowmrp/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, uploads *session.Store) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	edgeRepo := repository.NewBomEdgeRepository(db)
	catalog := repository.NewItemCatalog(db)

	// Audit records ride the Redis queue; the worker pool persists them.
	audit := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	treeSvc := service.NewTreeService(edgeRepo, catalog)
	edgeSvc := service.NewEdgeService(edgeRepo, catalog)
	copySvc := service.NewCopyService(edgeRepo, catalog, audit)
	deleteSvc := service.NewDeleteService(edgeRepo, audit)
	ingestSvc := service.NewIngestService(edgeRepo, catalog)

	// ── Handlers ─────────────────────────────────────────────────────────────
	bomH := handler.NewBomHandler(treeSvc, edgeSvc, copySvc, deleteSvc)
	uploadH := handler.NewUploadHandler(ingestSvc, uploads)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	bom := r.Group("/v1/bom")
	{
		bom.GET("/tree/:code", bomH.GetTree)
		bom.POST("/copy", bomH.Copy)

		bom.POST("/edges", bomH.CreateEdge)
		bom.GET("/edges", bomH.ListEdges)
		bom.PUT("/edges/:id", bomH.UpdateEdge)
		bom.DELETE("/edges/:id", bomH.DeleteEdge)
		bom.DELETE("/edges", bomH.DeleteEdges)
		bom.DELETE("/parents/:code/edges", bomH.DeleteByParent)
		bom.DELETE("/children/:code/edges", bomH.DeleteByChild)

		bom.GET("/template", uploadH.Template)
		bom.POST("/upload", uploadH.Upload)
		bom.POST("/upload/:token/commit", uploadH.Commit)
		bom.POST("/ingest", uploadH.IngestDirect)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
