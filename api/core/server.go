package core

import (
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anoixa/folio/api/middleware"
	"github.com/anoixa/folio/cache"
	"github.com/anoixa/folio/config"
	"github.com/anoixa/folio/internal/gallery"
	"github.com/anoixa/folio/internal/image"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *gorm.DB
	Storage   storage.Provider
	Cache     cache.Provider
	Layout    variant.Layout
	Pipeline  *image.Pipeline
	Images    *image.Service
	Galleries *gallery.Service
	Tokens    middleware.TokenParser
}

// NewRouter 创建 gin 引擎，返回的 cleanup 停止限流器的后台清理
func NewRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	router.Use(cors.New(corsConfig(cfg)))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小，额外 1MB 留给表单字段
	router.MaxMultipartMemory = cfg.UploadMaxBytes()
	router.Use(middleware.MaxBytesReader(cfg.UploadMaxBytes() + 1<<20))

	concurrencyLimiter := middleware.NewConcurrencyLimiter(cfg.ServerMaxInflight)
	router.Use(concurrencyLimiter.Middleware())

	// 速率限制
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	fileRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitFileRPS, cfg.RateLimitFileBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		fileRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, &RouterDependencies{
		ServerDependencies: deps,
		APIRateLimiter:     apiRateLimiter,
		FileRateLimiter:    fileRateLimiter,
		UploadLimiter:      middleware.NewConcurrencyLimiter(int64(max(runtime.NumCPU(), 2))),
	})

	return router, cleanup
}

// corsConfig 未配置来源时只允许自身域名；"*" 允许任意来源但不携带 cookie
func corsConfig(cfg *config.Config) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	var origins []string
	for _, o := range cfg.CORSAllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cc.AllowAllOrigins = true
			cc.AllowCredentials = false
			return cc
		}
		if o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	if len(origins) == 0 {
		origins = []string{cfg.BaseURL()}
	}
	cc.AllowOrigins = origins
	return cc
}

// NewServer 创建 http.Server
func NewServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := NewRouter(deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.ServerReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return srv, clean
}
