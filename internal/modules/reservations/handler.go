package reservations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spacebook/internal/middleware"
	"spacebook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the reservation routes on a group that already
// requires a session.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	r := protected.Group("/reservations")
	{
		r.GET("", h.List)
		r.GET("/new", h.NewForm)
		r.GET("/occupancy", h.Occupancy)
		r.GET("/calendar", h.Calendar)
		r.GET("/calendar/export", h.ExportCalendar)
		r.GET("/:id", h.EditForm)
		r.POST("", h.Create)
		r.PUT("/:id", h.Update)
		r.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	view, err := h.service.List(c.Request.Context(), sess)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) NewForm(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	raw := c.Query("space_id")
	if raw == "" {
		raw = c.Query("spaceId")
	}
	spaceID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || spaceID <= 0 {
		response.ErrorWithRedirect(c, http.StatusBadRequest, "INVALID_ID", "A space must be selected", "/spaces")
		return
	}

	view, err := h.service.NewForm(c.Request.Context(), sess, spaceID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) EditForm(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
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

func (h *Handler) Occupancy(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var q OccupancyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "space_id and date are required")
		return
	}

	view, err := h.service.Occupancy(c.Request.Context(), sess, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) Calendar(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var q CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "space_id is required")
		return
	}

	view, err := h.service.Calendar(c.Request.Context(), sess, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) ExportCalendar(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var q CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "space_id is required")
		return
	}

	file, err := h.service.ExportCalendar(c.Request.Context(), sess, q, c.Query("format"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

func (h *Handler) Create(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Create(c.Request.Context(), sess, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

func (h *Handler) Update(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Update(c.Request.Context(), sess, id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
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
	var (
		fields   FieldErrors
		rejected *RejectedError
	)
	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please fix the form errors", fields)
	case errors.As(err, &rejected):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "RESERVATION_REJECTED", rejected.Message, rejected.Fields)
	case errors.Is(err, ErrStaleView):
		response.Error(c, http.StatusConflict, "STALE_VIEW", "A newer request for this view is in progress")
	case errors.Is(err, ErrSpaceNotFound):
		response.ErrorWithRedirect(c, http.StatusNotFound, "NOT_FOUND", "Space not found", "/spaces")
	case errors.Is(err, ErrReservationNotFound):
		response.ErrorWithRedirect(c, http.StatusNotFound, "NOT_FOUND", "Error loading reservation", "/reservations")
	case errors.Is(err, ErrUnsupportedFormat):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "format must be csv or pdf")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", msgGeneric)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid reservation ID")
		return 0, false
	}
	return id, true
}
