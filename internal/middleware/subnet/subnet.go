package subnet

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewSubnetChecker admits requests whose X-Real-IP, or remote address when the
// header is absent, falls inside trustedSubnet. An empty subnet admits
// everyone.
func NewSubnetChecker(trustedSubnet string, logger *zap.SugaredLogger) (gin.HandlerFunc, error) {
	if trustedSubnet == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}

	_, netMask, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("cannot parse trusted subnet %q: %w", trustedSubnet, err)
	}

	return func(c *gin.Context) {
		realIP := c.GetHeader("X-Real-IP")
		if realIP == "" {
			realIP = c.RemoteIP()
		}

		ipAddr := net.ParseIP(realIP)
		if ipAddr == nil {
			logger.Errorf("internal request: error parsing client ip %q", realIP)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if !netMask.Contains(ipAddr) {
			logger.Warnf("internal request: denied %s %s from %s", c.Request.Method, c.Request.URL.Path, ipAddr)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Next()
	}, nil
}
