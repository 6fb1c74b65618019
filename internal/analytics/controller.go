package analytics

import (
	"net/http"
	"strconv"

	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	GetDashboardAnalytics(c *gin.Context)
	GetEventAnalytics(c *gin.Context)
	GetPersonalAnalytics(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// GetDashboardAnalytics godoc
// @Summary      Platform dashboard
// @Description  Totals, bookings by status, top events, tickets per event type and a daily revenue trend
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        days  query  int  false  "Trend window in days (default 30, max 90)"
// @Success      200  {object}  response.StandardApiResponse{data=SystemAnalytics}
// @Failure      403  {object}  response.StandardApiResponse
// @Router       /admin/analytics [get]
func (ctrl *controller) GetDashboardAnalytics(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.RespondJSON(c, "error", http.StatusBadRequest, "days must be a positive integer", nil, nil)
			return
		}
		days = parsed
	}

	dashboard, err := ctrl.service.GetDashboardAnalytics(c.Request.Context(), days)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard analytics retrieved successfully", dashboard, nil)
}

// GetEventAnalytics godoc
// @Summary      Sales summary for one event
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Success      200  {object}  response.StandardApiResponse{data=EventAnalytics}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /admin/analytics/events/{eventId} [get]
func (ctrl *controller) GetEventAnalytics(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	analytics, err := ctrl.service.GetEventAnalytics(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event analytics retrieved successfully", analytics, nil)
}

// GetPersonalAnalytics godoc
// @Summary      Caller's booking summary
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse{data=PersonalAnalytics}
// @Router       /analytics/me [get]
func (ctrl *controller) GetPersonalAnalytics(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	analytics, err := ctrl.service.GetPersonalAnalytics(c.Request.Context(), actor.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Personal analytics retrieved successfully", analytics, nil)
}
