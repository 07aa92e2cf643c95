package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fooddash-backend/internal/domain"
	"fooddash-backend/internal/usecase"
)

type addressPayload struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	ZipCode string `json:"zipCode" binding:"required"`
}

type orderItemPayload struct {
	MenuItem string `json:"menuItem" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	Restaurant      string             `json:"restaurant" binding:"required"`
	Items           []orderItemPayload `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress addressPayload     `json:"deliveryAddress" binding:"required"`
	Tip             decimal.Decimal    `json:"tip"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) createOrder(c *gin.Context) {
	ok := false
	defer func() { recordOrderOperation("create", ok) }()

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	actorID, _ := actor(c)
	items := make([]usecase.CreateOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = usecase.CreateOrderItem{MenuItemID: it.MenuItem, Quantity: it.Quantity}
	}

	order, clientSecret, err := s.orders.CreateOrder(c.Request.Context(), actorID, usecase.CreateOrderInput{
		RestaurantID: req.Restaurant,
		Items:        items,
		DeliveryAddress: domain.Address{
			Street:  req.DeliveryAddress.Street,
			City:    req.DeliveryAddress.City,
			State:   req.DeliveryAddress.State,
			ZipCode: req.DeliveryAddress.ZipCode,
		},
		Tip: req.Tip,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	ok = true
	respondSuccess(c, http.StatusCreated, gin.H{"order": order, "clientSecret": clientSecret})
}

func (s *Server) getOrder(c *gin.Context) {
	actorID, role := actor(c)
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) listUserOrders(c *gin.Context) {
	actorID, _ := actor(c)
	orders, err := s.orders.ListCustomerOrders(c.Request.Context(), actorID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) listRestaurantOrders(c *gin.Context) {
	actorID, _ := actor(c)
	orders, err := s.orders.ListRestaurantOrders(c.Request.Context(), actorID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	ok := false
	defer func() { recordOrderOperation("update_status", ok) }()

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	actorID, role := actor(c)
	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), actorID, role, domain.OrderStatus(req.Status))
	if err != nil {
		s.respondError(c, err)
		return
	}

	ok = true
	respondSuccess(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) cancelOrder(c *gin.Context) {
	ok := false
	defer func() { recordOrderOperation("cancel", ok) }()

	actorID, _ := actor(c)
	order, err := s.orders.CancelOrder(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ok = true
	respondSuccess(c, http.StatusOK, gin.H{"order": order})
}
