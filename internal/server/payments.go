package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fooddash-backend/internal/usecase"
)

type createIntentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

func (s *Server) createPaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	actorID, _ := actor(c)
	clientSecret, err := s.orders.CreatePaymentIntent(c.Request.Context(), req.OrderID, actorID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"clientSecret": clientSecret})
}

// paymentWebhook is called by the gateway, not by users. Per the provider
// contract it only ever answers 200 (acknowledged, including ignored event
// types and events we could not apply) or 400 (signature rejected); the
// provider retries failed deliveries on its own schedule.
func (s *Server) paymentWebhook(c *gin.Context) {
	ok := false
	defer func() { recordOrderOperation("webhook", ok) }()

	payload, err := c.GetRawData()
	if err != nil {
		respondFail(c, http.StatusBadRequest, "unable to read payload")
		return
	}

	err = s.orders.ReconcilePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	var authn usecase.AuthenticationError
	if errors.As(err, &authn) {
		respondFail(c, http.StatusBadRequest, authn.Error())
		return
	}
	if err != nil {
		s.log.WithError(err).Error("webhook reconciliation failed")
	}

	ok = err == nil
	c.JSON(http.StatusOK, gin.H{"received": true})
}
