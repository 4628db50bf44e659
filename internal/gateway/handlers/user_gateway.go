package handlers

import (
	"context"
	"net/http"

	"whisk-system/internal/api"
	"whisk-system/internal/gateway/middleware"

	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error)
}

type UserHTTPHandler struct {
	auth AuthService
}

func NewUserHTTPHandler(auth AuthService) *UserHTTPHandler {
	return &UserHTTPHandler{auth: auth}
}

// Login takes the OAuth2 password form: username and password,
// form-encoded.
func (h *UserHTTPHandler) Login(c *gin.Context) {
	req := &api.LoginRequest{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the user the bearer token belongs to.
func (h *UserHTTPHandler) Me(c *gin.Context) {
	user, ok := c.Get(middleware.UserKey)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}
