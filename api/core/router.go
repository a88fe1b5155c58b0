package core

import (
	"bufio"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/api/handler/galleries"
	"github.com/anoixa/folio/api/handler/images"
	"github.com/anoixa/folio/api/middleware"
	"github.com/anoixa/folio/config"
	"github.com/anoixa/folio/storage"
	"github.com/anoixa/folio/utils"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	*ServerDependencies
	APIRateLimiter  *middleware.IPRateLimiter
	FileRateLimiter *middleware.IPRateLimiter
	UploadLimiter   *middleware.ConcurrencyLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerFileRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Storage, deps.Cache)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, config.Build())
	})
}

// registerFileRoutes 公开访问已上传的原图与缩略图
func registerFileRoutes(router *gin.Engine, deps *RouterDependencies) {
	files := router.Group(deps.Layout.URLPrefix)
	files.Use(deps.FileRateLimiter.Middleware())
	{
		serve := serveStoredFile(deps.Storage)
		files.GET("/*key", serve)
		files.HEAD("/*key", serve)
	}
}

func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	imageHandler := images.NewHandler(deps.Pipeline, deps.Images)
	galleryHandler := galleries.NewHandler(deps.Galleries)
	authRequired := middleware.JWTAuth(deps.Tokens, deps.Config.JWTCookieName)

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.NoStore())
	apiGroup.Use(deps.APIRateLimiter.Middleware())
	{
		imagesGroup := apiGroup.Group("/images")
		{
			imagesGroup.GET("", imageHandler.ListImages)   // GET /api/images
			imagesGroup.GET("/:id", imageHandler.GetImage) // GET /api/images/{id}

			imagesGroup.POST("", authRequired, deps.UploadLimiter.MiddlewareWithBlock(30*time.Second), imageHandler.UploadImage) // POST /api/images
			imagesGroup.DELETE("/:id", authRequired, imageHandler.DeleteImage)                                                   // DELETE /api/images/{id}
		}

		galleriesGroup := apiGroup.Group("/galleries")
		{
			galleriesGroup.GET("", galleryHandler.ListGalleries)        // GET /api/galleries
			galleriesGroup.GET("/:slugOrId", galleryHandler.GetGallery) // GET /api/galleries/{slugOrId}

			authed := galleriesGroup.Group("", authRequired)
			{
				authed.POST("", galleryHandler.CreateGallery)                           // POST /api/galleries
				authed.PUT("/:slugOrId", galleryHandler.UpdateGallery)                  // PUT /api/galleries/{slugOrId}
				authed.PATCH("/:slugOrId", galleryHandler.UpdateGallery)                // PATCH /api/galleries/{slugOrId}
				authed.DELETE("/:slugOrId", galleryHandler.DeleteGallery)               // DELETE /api/galleries/{slugOrId}
				authed.POST("/:slugOrId/images", galleryHandler.AddImage)               // POST /api/galleries/{slugOrId}/images
				authed.DELETE("/:slugOrId/images/:imageId", galleryHandler.RemoveImage) // DELETE /api/galleries/{slugOrId}/images/{imageId}
			}
		}
	}
}

// sniffLen mimetype 默认读取的头部长度
const sniffLen = 3072

func serveStoredFile(provider storage.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := cleanKey(c.Param("key"))
		if !ok {
			common.RespondErrorCode(c, http.StatusNotFound, "file_not_found", "File not found")
			return
		}

		rc, err := provider.GetWithContext(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				common.RespondErrorCode(c, http.StatusNotFound, "file_not_found", "File not found")
				return
			}
			if !utils.IsContextCanceled(err) {
				common.RespondErrorCode(c, http.StatusInternalServerError, "storage_read_failed", "Failed to read file")
			}
			return
		}
		defer rc.Close()

		br := bufio.NewReaderSize(rc, sniffLen)
		head, _ := br.Peek(sniffLen)
		contentType := mimetype.Detect(head).String()

		// 文件名为 uuid，内容不会变化
		c.DataFromReader(http.StatusOK, -1, contentType, br, map[string]string{
			"Cache-Control":          "public, max-age=31536000, immutable",
			"X-Content-Type-Options": "nosniff",
		})
	}
}

// cleanKey 拒绝路径穿越与空路径
func cleanKey(raw string) (string, bool) {
	if strings.Contains(raw, "..") || strings.Contains(raw, "\\") {
		return "", false
	}
	key := strings.TrimPrefix(path.Clean("/"+raw), "/")
	if key == "" || key == "." {
		return "", false
	}
	return key, true
}
