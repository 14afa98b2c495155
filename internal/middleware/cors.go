package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS reflects allowed origins so the browser may send the session cookie.
func CORS(extraOrigins []string) gin.HandlerFunc {
	allowedOrigins := originSet(extraOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept, Origin, X-Requested-With, X-Session-ID, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		// Preflight ends here, before session middleware.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AllowedOrigin reports whether origin may open a websocket. An empty origin
// (non-browser client) is allowed.
func AllowedOrigin(extraOrigins []string) func(origin string) bool {
	allowed := originSet(extraOrigins)
	return func(origin string) bool {
		return origin == "" || allowed[origin]
	}
}

// originSet is the local dev front ends plus the configured origins.
func originSet(extra []string) map[string]bool {
	set := map[string]bool{
		"http://localhost:4200": true,
		"http://127.0.0.1:4200": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:5173": true,
	}
	for _, o := range extra {
		if o != "" {
			set[o] = true
		}
	}
	return set
}
