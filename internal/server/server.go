package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stagelink/stagelink/internal/account"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	"github.com/stagelink/stagelink/internal/application"
	"github.com/stagelink/stagelink/internal/authorization"
	"github.com/stagelink/stagelink/internal/config"
	"github.com/stagelink/stagelink/internal/engine"
	"github.com/stagelink/stagelink/internal/funnel"
	"github.com/stagelink/stagelink/internal/observability"
	obsmiddleware "github.com/stagelink/stagelink/internal/observability/logger"
	obsmetrics "github.com/stagelink/stagelink/internal/observability/metrics"
	obstracing "github.com/stagelink/stagelink/internal/observability/tracing"
	"github.com/stagelink/stagelink/internal/profile"
	"github.com/stagelink/stagelink/internal/project"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stagelink/stagelink/internal/quota"
	"github.com/stagelink/stagelink/internal/scoring"
	"github.com/stagelink/stagelink/internal/shortlist"
	"github.com/stagelink/stagelink/internal/tier"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	tier.Module,
	account.Module,
	profile.Module,
	project.Module,
	application.Module,
	quota.Module,
	scoring.Module,
	funnel.Module,
	shortlist.Module,
	authorization.Module,
	engine.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	funnelEng  *engine.Engine
	projectSvc projectdomain.Service
	authzSvc   authorization.Service
	users      accountdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	FunnelEng  *engine.Engine
	ProjectSvc projectdomain.Service
	AuthzSvc   authorization.Service
	Users      accountdomain.Repository
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		funnelEng:  p.FunnelEng,
		projectSvc: p.ProjectSvc,
		authzSvc:   p.AuthzSvc,
		users:      p.Users,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.actorMiddleware())

	projects := api.Group("/projects")
	{
		projects.GET("", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectView), s.listProjects)
		projects.POST("", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectCreate), s.createProject)
		projects.GET("/:id", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectView), s.getProject)
		projects.POST("/:id/approve", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectApprove), s.approveProject)
		projects.POST("/:id/reject", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectReject), s.rejectProject)
		projects.POST("/:id/close", s.requireAuthorization(authorization.ObjectProject, authorization.ActionProjectClose), s.closeProject)

		projects.GET("/:id/shortlist", s.requireAuthorization(authorization.ObjectShortlist, authorization.ActionShortlistView), s.getShortlist)
		projects.POST("/:id/shortlist", s.shortlistAction)

		projects.POST("/:id/applications", s.requireAuthorization(authorization.ObjectApplication, authorization.ActionApplicationCreate), s.createApplication)
	}

	applications := api.Group("/applications")
	{
		applications.POST("/bulk", s.requireAuthorization(authorization.ObjectApplication, authorization.ActionApplicationTransition), s.bulkTransition)
		applications.GET("/check-limits", s.requireAuthorization(authorization.ObjectApplication, authorization.ActionApplicationCheckLimits), s.checkLimits)
	}
}
