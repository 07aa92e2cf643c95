package server

import (
	"io"

	"github.com/gin-gonic/gin"

	"fooddash-backend/internal/usecase"
)

// Server-sent event streams bridging the notification bus to clients.
// Subscribers only see events published while they are connected.

func (s *Server) restaurantEvents(c *gin.Context) {
	actorID, role := actor(c)
	if err := s.orders.AuthorizeRestaurantAccess(c.Request.Context(), c.Param("id"), actorID, role); err != nil {
		s.respondError(c, err)
		return
	}
	s.streamTopic(c, usecase.RestaurantTopic(c.Param("id")))
}

func (s *Server) orderEvents(c *gin.Context) {
	actorID, role := actor(c)
	// GetOrder doubles as the existence and visibility check.
	if _, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"), actorID, role); err != nil {
		s.respondError(c, err)
		return
	}
	s.streamTopic(c, usecase.OrderTopic(c.Param("id")))
}

func (s *Server) streamTopic(c *gin.Context, topic string) {
	events, cancel, err := s.bus.Subscribe(c.Request.Context(), topic)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
