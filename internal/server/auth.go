package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fooddash-backend/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleCustomer
	}
	// Admin accounts are provisioned out of band, never self-registered.
	if role == domain.RoleAdmin {
		respondFail(c, http.StatusBadRequest, "invalid role")
		return
	}
	token, user, err := s.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"token": token, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	token, user, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"token": token, "user": user})
}
