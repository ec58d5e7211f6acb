// Package middleware provides HTTP rate limiting for the API.
//
// Requests are counted per client IP in fixed windows. The in-memory limiter
// suits a single instance; the Redis limiter shares counts across replicas:
//
//	limiter := middleware.NewRedisLimiter(redisClient, cfg, "eventdash:ratelimit")
//	trusted, _ := middleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
//	handler = middleware.RateLimit(limiter, trusted, logger)(handler)
//
// Clients are identified by the connection address; X-Forwarded-For is
// only believed when the connection comes from a trusted proxy.
//
// Limiter errors fail open: the request is served and the error logged.
package middleware
