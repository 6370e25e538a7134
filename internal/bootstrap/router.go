package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	httpHandler "plantguard/internal/handler/http"
	wsHandler "plantguard/internal/handler/websocket"
	"plantguard/internal/metrics"
	"plantguard/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Prediction *httpHandler.PredictionHandler
	Auth       *httpHandler.AuthHandler
	Health     *httpHandler.HealthHandler
	Market     *httpHandler.MarketHandler
	Contact    *httpHandler.ContactHandler
	Feed       *wsHandler.WebSocketHandler
}

// RouterOptions carries the cross-cutting pieces of the router.
type RouterOptions struct {
	Log               *logrus.Logger
	Metrics           *metrics.Metrics
	Verifier          middleware.TokenVerifier
	RateCounter       middleware.Counter
	RateLimitMax      int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
}

// NewRouter builds the gin engine with every route.
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(opts.Log))
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(corsMiddleware(opts.CORSAllowedOrigin))

	limited := middleware.RateLimit(opts.RateCounter, opts.RateLimitMax, opts.RateLimitWindow)
	auth := middleware.Auth(opts.Verifier)

	api := router.Group("/api")
	{
		api.POST("/predict", limited, h.Prediction.Predict)
		api.GET("/history", h.Prediction.History)
		api.GET("/health", h.Health.Health)
		api.GET("/market", h.Market.List)
		api.POST("/contact", limited, h.Contact.Submit)
	}
	router.POST("/signup", limited, h.Auth.Signup)
	router.POST("/login", limited, h.Auth.Login)
	router.GET("/protected", auth, h.Auth.Protected)
	router.GET("/ws/predictions", auth, h.Feed.HandleConnection)
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	return router
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

const requestIDHeader = "X-Request-ID"

// LoggerMiddleware logs one line per request at a level chosen by status,
// tagged with a request id (taken from X-Request-ID or generated).
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		entry := log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})
		if user := c.GetString("user_id"); user != "" {
			entry = entry.WithField("user_id", user)
		}

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
