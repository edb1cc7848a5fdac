package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IPAllowlist only lets the listed IPs or CIDR blocks through. An empty list
// allows everything (local development only).
func IPAllowlist(entries []string) gin.HandlerFunc {
	exact := make(map[string]bool)
	var nets []*net.IPNet
	for _, e := range entries {
		if _, block, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, block)
			continue
		}
		exact[e] = true
	}
	return func(c *gin.Context) {
		if len(exact) == 0 && len(nets) == 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if exact[ip] {
			c.Next()
			return
		}
		parsed := net.ParseIP(ip)
		for _, block := range nets {
			if parsed != nil && block.Contains(parsed) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}
