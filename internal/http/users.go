package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service"
)

type registerReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// register godoc
// @Summary Create a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerReq true "Account"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if !s.bindJSON(c, &req) {
		return
	}
	sess, err := s.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Registration successful", "token": sess.Token, "user": sess.User})
}

// login godoc
// @Summary Exchange credentials for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errorBody
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if !s.bindJSON(c, &req) {
		return
	}
	sess, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Login successful", "token": sess.Token, "user": sess.User})
}

// getMe godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errorBody
// @Router /users/me [get]
func (s *Server) getMe(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u})
}

// updateMe godoc
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProfilePatch true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Router /users/me [put]
func (s *Server) updateMe(c *gin.Context) {
	var patch service.ProfilePatch
	if !s.bindJSON(c, &patch) {
		return
	}
	u, err := s.users.UpdateProfile(c.Request.Context(), currentUserID(c), patch)
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile updated", "user": u})
}
