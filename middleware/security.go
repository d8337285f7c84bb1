package middleware

import (
	"fmt"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"iamkernel/response"
)

// RateLimiter implements a simple in-memory rate limiter.
type RateLimiter struct {
	requests map[string]*ClientInfo
	mutex    sync.RWMutex
	limit    int
	window   time.Duration
}

// ClientInfo tracks request information for a client.
type ClientInfo struct {
	requests  []time.Time
	lastReset time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(requestsPerMinute int, windowDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*ClientInfo),
		limit:    requestsPerMinute,
		window:   windowDuration,
	}
	go rl.cleanup()
	return rl
}

// RateLimit middleware that limits requests per client.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := getClientIdentifier(c)

		if !rl.allowRequest(clientID) {
			c.Header("X-Rate-Limit-Limit", fmt.Sprintf("%d", rl.limit))
			c.Header("X-Rate-Limit-Window", rl.window.String())
			c.Header("Retry-After", "60")
			response.Error(c, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allowRequest(clientID string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	clientInfo, exists := rl.requests[clientID]
	if !exists {
		clientInfo = &ClientInfo{requests: make([]time.Time, 0), lastReset: now}
		rl.requests[clientID] = clientInfo
	}

	cutoff := now.Add(-rl.window)
	validRequests := make([]time.Time, 0)
	for _, req := range clientInfo.requests {
		if req.After(cutoff) {
			validRequests = append(validRequests, req)
		}
	}
	clientInfo.requests = validRequests

	if len(clientInfo.requests) >= rl.limit {
		return false
	}

	clientInfo.requests = append(clientInfo.requests, now)
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		now := time.Now()
		cutoff := now.Add(-rl.window * 2)

		for clientID, clientInfo := range rl.requests {
			if clientInfo.lastReset.Before(cutoff) && len(clientInfo.requests) == 0 {
				delete(rl.requests, clientID)
			}
		}
		rl.mutex.Unlock()
	}
}

// getClientIdentifier returns a unique identifier for the client, preferring
// the authenticated principal over the bare IP so a shared NAT/proxy can't
// exhaust one tenant's quota against another's.
func getClientIdentifier(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok {
		return fmt.Sprintf("principal:%s", p.ID())
	}

	clientIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")
	if userAgent != "" {
		return fmt.Sprintf("ip:%s:ua:%s", clientIP, userAgent[:min(50, len(userAgent))])
	}
	return fmt.Sprintf("ip:%s", clientIP)
}

// SecurityHeaders middleware adds standard security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; connect-src 'self'; frame-ancestors 'none';")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// RequestLogger middleware logs requests.
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}

// RequestID middleware adds a unique request ID to each request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := generateRequestID()
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Unix())
}

// APIVersionMiddleware adds API versioning support.
func APIVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.GetHeader("API-Version")
		if version == "" {
			version = "v1"
		}
		c.Set("api_version", version)
		c.Header("API-Version", version)
		c.Next()
	}
}

// ValidateContentType middleware validates content type for POST/PUT/PATCH requests.
func ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "PATCH" {
			contentType := c.GetHeader("Content-Type")
			if contentType == "" {
				response.Error(c, http.StatusBadRequest, "missing_content_type", "Content-Type header is required")
				c.Abort()
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				response.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "invalid Content-Type")
				c.Abort()
				return
			}
			if mediaType != "application/json" &&
				mediaType != "application/x-www-form-urlencoded" &&
				mediaType != "multipart/form-data" {
				response.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json, application/x-www-form-urlencoded or multipart/form-data")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// IPWhitelist middleware restricts access to specific IP addresses (for admin endpoints).
func IPWhitelist(allowedIPs []string) gin.HandlerFunc {
	allowedIPMap := make(map[string]bool)
	for _, ip := range allowedIPs {
		allowedIPMap[ip] = true
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if len(allowedIPMap) > 0 && !allowedIPMap[clientIP] {
			response.Error(c, http.StatusForbidden, "access_denied", "access denied from this IP address")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ErrorHandler middleware recovers panics into a StandardResponse envelope.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		response.Error(c, http.StatusInternalServerError, "internal_server_error", "an unexpected error occurred")
		fmt.Printf("panic recovered: %v\n", recovered)
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
