package spaces

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spacebook/internal/apiclient"
	"spacebook/internal/middleware"
	"spacebook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the space routes on a group that already requires a
// session. adminOnly guards the mutating routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	spaces := protected.Group("/spaces")
	{
		spaces.GET("", h.List)
		spaces.GET("/new", adminOnly, h.NewForm)
		spaces.GET("/:id", h.Get)
		spaces.POST("", adminOnly, h.Create)
		spaces.PUT("/:id", adminOnly, h.Update)
		spaces.DELETE("/:id", adminOnly, h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter values")
		return
	}
	criteria, err := q.Criteria()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter values")
		return
	}

	view, err := h.service.List(c.Request.Context(), sess, criteria)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) NewForm(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.CreateForm())
}

func (h *Handler) Get(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.service.EditForm(c.Request.Context(), sess, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) Create(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var req SpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	space, err := h.service.Create(c.Request.Context(), sess, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"space": space, "redirect": "/spaces"})
}

func (h *Handler) Update(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	space, err := h.service.Update(c.Request.Context(), sess, id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"space": space, "redirect": "/spaces"})
}

func (h *Handler) Delete(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	result, err := h.service.Delete(c.Request.Context(), sess, id, confirmed)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please fix the form errors", fields)
	case errors.Is(err, ErrSpaceNotFound):
		response.ErrorWithRedirect(c, http.StatusNotFound, "NOT_FOUND", "Space not found", "/spaces")
	case apiclient.IsValidation(err):
		apiErr, _ := apiclient.AsAPIError(err)
		msg := apiErr.Message
		if msg == "" {
			msg = "Please fix the form errors"
		}
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, apiErr.Errors)
	case apiclient.IsForbidden(err):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Something went wrong. Please try again.")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return 0, false
	}
	return id, true
}
