package app

import (
	"context"
	"net/http"
	"time"

	"mangrovewatch/report-api/app/report"
	"mangrovewatch/report-api/app/root"
	"mangrovewatch/report-api/app/user"
	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/middleware"
	"mangrovewatch/report-api/pkg/response"
	"mangrovewatch/report-api/pkg/validators"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRouter wires every endpoint. Background work started here (rate limiter
// cleanup) stops when ctx is done.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	validators.RegisterTagNames()

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.CustomRecovery(func(c *gin.Context, err any) {
			zap.L().Error("Recovered from panic", zap.Any("panic", err), zap.String("requestID", c.GetString("requestID")))
			response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "Internal server error")
		}),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.CodeNotFound, "Route not found")
	})

	rate := viper.GetFloat64("security.rate_limit")
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rate,
		Burst:             int(rate * 2),
	})
	go limiter.Run(ctx)
	limited := limiter.Middleware()

	auth := middleware.NewAuthMiddleware(d.Tokens, d.Store.Users)
	responses := newCacheStore()
	maxBody := viper.GetInt64("reports.max_body_size") << 20

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	u := m.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users 		-> Registers a new user and sends a verification code
		u.POST("", limited, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a user and returns a session token
		u.POST("/login", limited, func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/verify	-> Verifies an email with its code
		u.POST("/verify", limited, func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/users/resend	-> Issues a new verification code
		u.POST("/resend", limited, func(c *gin.Context) { user.UserResend(c, d) })

		// GET /api/users/me		-> Returns the logged in user
		u.GET("/me", auth, func(c *gin.Context) { user.UserFetch(c, d) })
	}

	r := m.Group("/reports")
	{
		// GET /api/reports/community	-> Lists everyone's reports, no login required. Cached for
		// reports.cache_seconds, so deletions can take that long to disappear
		r.GET("/community", cacheFor(responses, viper.GetInt("reports.cache_seconds")), func(c *gin.Context) { report.ReportListCommunity(c, d) })

		// GET /api/reports/mine	-> Lists the caller's reports
		r.GET("/mine", auth, func(c *gin.Context) { report.ReportListOwn(c, d) })

		// POST /api/reports		-> Submits a report and awards points
		r.POST("", auth, middleware.BodySizeLimiter(maxBody), func(c *gin.Context) { report.ReportSubmit(c, d) })

		// GET /api/reports/:id		-> Returns a report owned by the caller
		r.GET("/:id", auth, func(c *gin.Context) { report.ReportFetch(c, d) })

		// PATCH /api/reports/:id	-> Edits a report
		r.PATCH("/:id", auth, middleware.BodySizeLimiter(1<<20), func(c *gin.Context) { report.ReportEdit(c, d) })

		// DELETE /api/reports/:id	-> Deletes a report
		r.DELETE("/:id", auth, func(c *gin.Context) { report.ReportDelete(c, d) })
	}

	return router
}

func newCacheStore() persist.CacheStore {
	if addr := viper.GetString("cache.redis_addr"); addr != "" {
		return persist.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
	}

	return persist.NewMemoryStore(time.Minute)
}

func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	if sec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	// Replays keep the request ID the middleware set for the current caller
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec),
		cache.WithDiscardHeaders([]string{middleware.RequestIDHeader}),
	)
}
