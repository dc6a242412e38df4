package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/university-records/api/swagger"
	"github.com/noah-isme/university-records/internal/middleware"
	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/service"
	"github.com/noah-isme/university-records/pkg/config"
	"github.com/noah-isme/university-records/pkg/logger"
	corsmiddleware "github.com/noah-isme/university-records/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/university-records/pkg/middleware/requestid"
)

// Services bundles what the HTTP API serves.
type Services struct {
	Groups   resourceService[models.Group, service.CreateGroupRequest, service.UpdateGroupRequest]
	Teachers resourceService[models.Teacher, service.CreateTeacherRequest, service.UpdateTeacherRequest]
	Students resourceService[models.Student, service.CreateStudentRequest, service.UpdateStudentRequest]
	Subjects resourceService[models.Subject, service.CreateSubjectRequest, service.UpdateSubjectRequest]
	Grades   gradeService
	Queries  queryRunner
	Metrics  *service.MetricsService
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg *config.Config, logr *zap.Logger, svc Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.Metrics))

	metrics := NewMetricsHandler(svc.Metrics)
	r.GET("/health", metrics.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metrics.Prometheus)
	}
	if cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	NewResourceHandler(svc.Groups).Register(api.Group("/groups"))
	NewResourceHandler(svc.Teachers).Register(api.Group("/teachers"))
	NewResourceHandler(svc.Students).Register(api.Group("/students"))
	NewResourceHandler(svc.Subjects).Register(api.Group("/subjects"))
	NewGradeHandler(svc.Grades).Register(api.Group("/grades"))
	NewQueryHandler(svc.Queries).Register(api.Group("/queries"))

	return r
}
