package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/server/middleware"
	"github.com/Roshanbtech/Extractify/internal/shared/server/respond"
)

const cookieMaxAge = 24 * 60 * 60

// Handler exposes account operations over HTTP.
type Handler struct {
	Service      *Service
	CookieSecure bool
}

// NewHandler constructs a Handler. cookieSecure marks the access token
// cookie Secure, which production environments should enable.
func NewHandler(service *Service, cookieSecure bool) *Handler {
	return &Handler{Service: service, CookieSecure: cookieSecure}
}

// Register mounts the auth routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	authGroup.POST("/register", h.RegisterUser)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/check", h.Check)
}

// RegisterUser creates a new account.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.AppError(c, apperror.Wrap(apperror.Validation, "invalid request body", err))
		return
	}

	user, err := h.Service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, AuthResponse{
		Message: "user registered successfully",
		User:    toResponse(user),
	})
}

// Login verifies credentials and sets the access token cookie.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.AppError(c, apperror.Wrap(apperror.Validation, "invalid request body", err))
		return
	}

	user, token, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, token, cookieMaxAge, "/", "", h.CookieSecure, true)

	respond.OK(c, AuthResponse{
		Message: "login successful",
		User:    toResponse(user),
		Token:   token,
	})
}

// Logout clears the access token cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.CookieSecure, true)
	respond.OK(c, gin.H{"message": "logged out"})
}

// Check confirms the caller's token still maps to an account.
func (h *Handler) Check(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	user, err := h.Service.Get(c.Request.Context(), userID)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	respond.OK(c, AuthResponse{
		Message: "authenticated",
		User:    toResponse(user),
	})
}
