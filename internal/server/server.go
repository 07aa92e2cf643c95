package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"fooddash-backend/internal/config"
	"fooddash-backend/internal/domain"
	"fooddash-backend/internal/infrastructure/bus"
	"fooddash-backend/internal/usecase"
)

type Server struct {
	cfg    config.Config
	log    *logrus.Logger
	auth   *usecase.AuthService
	orders *usecase.OrderService
	bus    bus.Bus

	engine *gin.Engine
	server *http.Server
}

func New(cfg config.Config, log *logrus.Logger, auth *usecase.AuthService, orders *usecase.OrderService, b bus.Bus) *Server {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.EnableJsonDecoderDisallowUnknownFields()

	s := &Server{
		cfg:    cfg,
		log:    log,
		auth:   auth,
		orders: orders,
		bus:    b,
		engine: gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(prometheusMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)

	// Raw payload + signature header; must stay outside auth.
	r.POST("/payments/webhook", s.paymentWebhook)

	api := r.Group("/", s.authRequired())
	api.POST("/orders", s.createOrder)
	api.GET("/orders/user", s.listUserOrders)
	api.GET("/orders/restaurant", s.requireRoles(domain.RoleOwner, domain.RoleAdmin), s.listRestaurantOrders)
	api.GET("/orders/:id", s.getOrder)
	api.PATCH("/orders/:id", s.requireRoles(domain.RoleOwner, domain.RoleAdmin), s.updateOrderStatus)
	api.POST("/orders/:id/cancel", s.cancelOrder)
	api.POST("/payments/create-intent", s.createPaymentIntent)
	api.GET("/events/restaurants/:id", s.restaurantEvents)
	api.GET("/events/orders/:id", s.orderEvents)
}

func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 30 * time.Second,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Response envelope: "success" on 2xx, "fail" on client faults, "error" on
// server faults.

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "fail", "message": message})
}

func (s *Server) respondError(c *gin.Context, err error) {
	var (
		notFound     usecase.NotFoundError
		forbidden    usecase.ForbiddenError
		validation   usecase.ValidationError
		invalidState usecase.InvalidStateError
		unavailable  usecase.UnavailableItemError
		authn        usecase.AuthenticationError
		conflict     usecase.ConflictError
		gateway      usecase.GatewayUnavailableError
	)
	switch {
	case errors.As(err, &notFound):
		respondFail(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &forbidden):
		respondFail(c, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &validation):
		respondFail(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &invalidState):
		respondFail(c, http.StatusBadRequest, invalidState.Error())
	case errors.As(err, &unavailable):
		respondFail(c, http.StatusBadRequest, unavailable.Error())
	case errors.As(err, &authn):
		respondFail(c, http.StatusBadRequest, authn.Error())
	case errors.As(err, &conflict):
		respondFail(c, http.StatusConflict, conflict.Error())
	case errors.As(err, &gateway):
		s.log.WithError(err).Warn("payment gateway unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "payment provider is unavailable, please try again",
		})
	default:
		// Never leak internals on unexpected failures.
		s.log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
	}
}

func actor(c *gin.Context) (string, domain.Role) {
	return c.GetString(ctxUserID), domain.Role(c.GetString(ctxRole))
}
