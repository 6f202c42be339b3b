package api

import (
	"net/http"

	"bhss/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLogin(c *gin.Context) {
	var in models.LoginInput
	if !bindJSON(c, "handleLogin", &in) {
		return
	}
	session, err := s.svc.Users.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, "handleLogin", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, "handleListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var in models.UserInput
	if !bindJSON(c, "handleCreateUser", &in) {
		return
	}
	user, err := s.svc.Users.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, "handleCreateUser", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteUser")
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, "handleDeleteUser", err)
		return
	}
	c.Status(http.StatusNoContent)
}
