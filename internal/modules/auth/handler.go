package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spacebook/internal/apiclient"
	"spacebook/internal/middleware"
	"spacebook/internal/pkg/response"
	"spacebook/internal/pkg/validator"
	"spacebook/internal/session"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgRegisterValidation = "Validation error. Please check the fields."
	msgGeneric            = "Something went wrong. Please try again."
)

// CookieConfig describes the browser cookie carrying the session id.
type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{service: service, cookie: cookie}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	authGroup := protected.Group("/auth")
	{
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required", errs)
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", msgInvalidCredentials)
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", msgGeneric)
		return
	}

	h.setSessionCookie(c, sess)
	response.Success(c, http.StatusOK, SessionResponse{
		User:      toUserPublic(sess),
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Redirect:  "/spaces",
	})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msgRegisterValidation, errs)
		return
	}

	sess, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			var details any
			if apiErr, ok := apiclient.AsAPIError(err); ok && len(apiErr.Errors) > 0 {
				details = apiErr.Errors
			}
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msgRegisterValidation, details)
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", msgGeneric)
		return
	}

	if sess == nil {
		response.Success(c, http.StatusCreated, gin.H{"redirect": "/login"})
		return
	}

	h.setSessionCookie(c, sess)
	response.Success(c, http.StatusCreated, SessionResponse{
		User:      toUserPublic(sess),
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Redirect:  "/spaces",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	if err := h.service.Logout(c.Request.Context(), sess); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", msgGeneric)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.Success(c, http.StatusOK, gin.H{"redirect": "/login"})
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	response.Success(c, http.StatusOK, SessionResponse{
		User:      toUserPublic(sess),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, sess *session.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, sess.ID, maxAge, "/", "", h.cookie.Secure, true)
}
