package app

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rawen554/uploader/internal/middleware/compress"
	ginLogger "github.com/rawen554/uploader/internal/middleware/logger"
	"github.com/rawen554/uploader/internal/middleware/subnet"
	"github.com/rawen554/uploader/internal/models"
)

const (
	uploadPath  = "/upload"
	historyPath = "/history"
	pingPath    = "/ping"
	metricsPath = "/metrics"
	pprofPrefix = "debug/pprof"
)

func (a *App) SetupRouter() (*gin.Engine, error) {
	r := gin.New()
	if a.config.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = a.config.MaxMultipartMemory
	}

	corsMiddleware, err := a.newCORS()
	if err != nil {
		return nil, fmt.Errorf("error initializing cors middleware: %w", err)
	}

	r.Use(ginLogger.Logger(a.logger.Named("middleware")))
	r.Use(gin.CustomRecovery(a.recovery))
	r.Use(corsMiddleware)
	r.Use(compress.Compress(a.logger.Named("compress")))

	r.POST(uploadPath, a.Upload)
	r.GET(historyPath, a.History)
	r.POST(historyPath, a.History)
	r.GET(pingPath, a.Ping)

	subnetChecker, err := subnet.NewSubnetChecker(a.config.TrustedSubnet, a.logger.Named("subnet_checker"))
	if err != nil {
		return nil, fmt.Errorf("error initializing subnet checker: %w", err)
	}

	internal := r.Group("/", subnetChecker)
	{
		internal.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{
			DisableCompression: true,
		})))
		if a.config.ProfileMode {
			pprof.RouteRegister(internal, pprofPrefix)
		}
	}

	r.NoRoute(a.NotFound)

	return r, nil
}

func (a *App) newCORS() (gin.HandlerFunc, error) {
	cfg := cors.DefaultConfig()
	if len(a.config.AllowOrigins) == 0 || (len(a.config.AllowOrigins) == 1 && a.config.AllowOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = a.config.AllowOrigins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cors.New(cfg), nil
}

func (a *App) recovery(c *gin.Context, rec any) {
	a.logger.Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   errInternal,
		Message: fmt.Sprintf("%v", rec),
	})
}
