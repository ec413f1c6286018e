package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/auth"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

const (
	clientCleanupInterval = 10 * time.Minute
	clientIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores rate limiters for a specific client.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware manages rate limiting for API endpoints.
// Every client is held to the hard limit; anonymous clients are also
// held to the soft limit.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	now     func() time.Time
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		now:     time.Now,
	}
	go rm.cleanupClients()
	return rm
}

// getClientIdentifier creates a unique key based on IP, Fingerprint, and SPA Session ID.
func getClientIdentifier(c *gin.Context) string {
	ip := c.ClientIP()
	fingerprint := c.GetHeader("X-BFP")
	spaSession := c.GetHeader("X-SPA")
	return fmt.Sprintf("%s|%s|%s", ip, fingerprint, spaSession)
}

// authenticatedCaller returns the user ID of a valid bearer token, if any.
func (rm *RateLimiterMiddleware) authenticatedCaller(c *gin.Context) (string, bool) {
	tokenString, err := bearerToken(c)
	if err != nil {
		return "", false
	}
	claims, err := auth.ValidateJWT(tokenString, rm.cfg.JwtSecret)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

// getClientLimiter retrieves or creates the rate limiters for a given client identifier.
func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitSoftRefillRate), rm.cfg.RateLimitSoftBucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitHardRefillRate), rm.cfg.RateLimitHardBucketSize),
		}
		rm.clients[identifier] = limiter
		utils.Logger.WithField("client", identifier).Debug("Created rate limiter entry")
	}
	limiter.lastSeen = rm.now()
	return limiter
}

// evictIdle removes client entries not seen since the idle timeout and
// returns how many were removed.
func (rm *RateLimiterMiddleware) evictIdle() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	count := 0
	for id, client := range rm.clients {
		if rm.now().Sub(client.lastSeen) > clientIdleTimeout {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// cleanupClients periodically removes old client entries from the map.
func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(clientCleanupInterval)
		if count := rm.evictIdle(); count > 0 {
			utils.Logger.Infof("Rate limiter cleanup removed %d old client entries", count)
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := getClientIdentifier(c)
		userID, authenticated := rm.authenticatedCaller(c)
		if authenticated {
			clientKey = "user|" + userID
		}

		limiter := rm.getClientLimiter(clientKey)

		if !limiter.hardLimiter.Allow() {
			utils.Logger.WithField("client", clientKey).Warnf("Hard rate limit exceeded on %s %s", c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !authenticated && !limiter.softLimiter.Allow() {
			utils.Logger.WithField("client", clientKey).Infof("Soft rate limit exceeded on %s %s", c.Request.Method, c.FullPath())
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many anonymous requests, sign in or slow down"})
			return
		}

		c.Next()
	}
}
