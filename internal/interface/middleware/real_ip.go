package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey holds the resolved client address.
const CtxRealIPKey = "real_ip"

// ProxyConfig lists the peers allowed to report a client address.
// Forwarding headers from any other peer are ignored.
type ProxyConfig struct {
	// TrustedProxies are IPs or CIDRs of load balancers in front of the service.
	TrustedProxies []string
	// Platform names a CDN whose client header is trusted as-is: "cloudflare" or "appengine".
	Platform string
}

// TrustProxies configures how the engine resolves ClientIP. An empty config
// trusts nobody, so the TCP peer address is always used.
func TrustProxies(r *gin.Engine, pc ProxyConfig) error {
	var proxies []string
	if len(pc.TrustedProxies) > 0 {
		proxies = pc.TrustedProxies
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	switch strings.ToLower(pc.Platform) {
	case "":
		r.TrustedPlatform = ""
	case "cloudflare":
		r.TrustedPlatform = gin.PlatformCloudflare
	case "appengine":
		r.TrustedPlatform = gin.PlatformGoogleAppEngine
	default:
		return fmt.Errorf("unknown trusted platform %q", pc.Platform)
	}
	return nil
}

// RealIP stores the caller address under CtxRealIPKey.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, c.ClientIP())
		c.Next()
	}
}
