package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/web-detect/internal/logging"
)

// NewRouter builds the gin engine with recovery, request logging and CORS, and registers the routes.
func NewRouter(uc WebDetector, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = MaxUploadSize
	router.Use(gin.Recovery())
	router.Use(logging.GinLogger(logger))
	router.Use(permissiveCORS())

	RegisterRoutes(router, uc)
	return router
}

// permissiveCORS reflects any origin and allows credentials.
// Not fit for production as is; restrict the origin list before exposing the service.
func permissiveCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(string) bool { return true },
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Accept", "Accept-Encoding", "Authorization", "Content-Type",
			"Content-Length", "X-Requested-With", logging.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
