package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/padelcana/courtbook/internal/identity"
	"github.com/padelcana/courtbook/pkg/booking"
	"github.com/padelcana/courtbook/pkg/payment"
	"go.uber.org/zap"
)

// Services bundles the domain dependencies of the HTTP facade.
type Services struct {
	Bookings *booking.Service
	Payments *payment.Service
	Identity *identity.Service
	Tokens   *identity.TokenIssuer

	// RateLimits defaults to in-memory budgets when left zero.
	RateLimits RateLimits
}

// Run boots the HTTP API using the supplied configuration and blocks until
// the context is cancelled.
func Run(ctx context.Context, cfg Config, logger *zap.Logger, services Services) error {
	router := NewRouter(cfg, logger, services)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine with every route and middleware attached.
func NewRouter(cfg Config, logger *zap.Logger, services Services) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		logger:   logger,
		services: services,
	}

	// Health checks stay outside every request budget.
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limits := services.RateLimits
	if limits.Global == nil {
		limits = MemoryRateLimits()
	}
	router.Use(limits.Global)

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	router.GET("/clubs", handler.handleListClubs)
	router.POST("/clubs", handler.handleCreateClub)
	router.GET("/clubs/:id/courts", handler.handleClubCourts)
	router.POST("/clubs/:id/courts",
		authRequired(services.Tokens),
		requireRole(identity.RoleStaff),
		handler.handleRegisterCourt)

	router.GET("/availability", handler.handleAvailability)

	authenticated := router.Group("/")
	authenticated.Use(authRequired(services.Tokens))

	authenticated.POST("/bookings", limits.Bookings, handler.handleCreateBooking)
	authenticated.GET("/bookings/me", handler.handleMyBookings)
	authenticated.GET("/admin/bookings",
		requireRole(identity.RoleClubAdmin),
		handler.handleAdminBookings)
	authenticated.POST("/payments/intent", limits.Payments, handler.handleCreateIntent)

	// The webhook carries no bearer token; the payload signature is the
	// authentication.
	router.POST("/payments/webhook", handler.handleWebhook)
	router.POST("/stripe/webhook", handler.handleWebhook)

	return router
}

type httpHandler struct {
	logger   *zap.Logger
	services Services
}
