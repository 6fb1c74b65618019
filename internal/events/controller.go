package events

import (
	"net/http"
	"strconv"

	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	UpdateEvent(c *gin.Context)
	DeleteEvent(c *gin.Context)
	GetAllEvents(c *gin.Context)
	GetUpcomingEvents(c *gin.Context)
	GetRecommendations(c *gin.Context)
	RestockEvent(c *gin.Context)
	GetMovements(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateEvent godoc
// @Summary      Create an event
// @Description  available_tickets becomes the opening stock, recorded in the inventory journal
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  CreateEventRequest  true  "Event"
// @Success      201  {object}  response.StandardApiResponse{data=EventResponse}
// @Failure      400  {object}  response.StandardApiResponse
// @Router       /admin/events [post]
func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Admin not authenticated", nil, nil)
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event created successfully", event, nil)
}

// GetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventId  path  string  true  "Event ID"
// @Success      200  {object}  response.StandardApiResponse{data=EventResponse}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /events/{eventId} [get]
func (ctrl *controller) GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	event, err := ctrl.service.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

// UpdateEvent godoc
// @Summary      Update an event
// @Description  Ticket stock cannot be changed here; use the restock endpoint
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string              true  "Event ID"
// @Param        request  body  UpdateEventRequest  true  "Fields to change"
// @Success      200  {object}  response.StandardApiResponse{data=EventResponse}
// @Router       /admin/events/{eventId} [put]
func (ctrl *controller) UpdateEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.UpdateEvent(c.Request.Context(), eventID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event updated successfully", event, nil)
}

// DeleteEvent godoc
// @Summary      Delete an event
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /admin/events/{eventId} [delete]
func (ctrl *controller) DeleteEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteEvent(c.Request.Context(), eventID); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

// GetAllEvents godoc
// @Summary      Browse events
// @Tags         events
// @Produce      json
// @Param        keyword    query  string  false  "Matches title or description"
// @Param        location   query  string  false  "Location substring"
// @Param        eventType  query  string  false  "concert, workshop, conference, festival, sport or other"
// @Param        startDate  query  string  false  "YYYY-MM-DD"
// @Param        endDate    query  string  false  "YYYY-MM-DD, inclusive"
// @Param        minPrice   query  int     false  "Minor units"
// @Param        maxPrice   query  int     false  "Minor units"
// @Param        page       query  int     false  "Page"
// @Param        limit      query  int     false  "Page size"
// @Success      200  {object}  response.StandardApiResponse{data=PaginatedEvents}
// @Router       /events [get]
func (ctrl *controller) GetAllEvents(c *gin.Context) {
	var query EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.GetAllEvents(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", result, nil)
}

// GetUpcomingEvents godoc
// @Summary      Next events by date
// @Tags         events
// @Produce      json
// @Param        limit  query  int  false  "At most 50"
// @Success      200  {object}  response.StandardApiResponse{data=[]EventResponse}
// @Router       /events/upcoming [get]
func (ctrl *controller) GetUpcomingEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	events, err := ctrl.service.GetUpcomingEvents(c.Request.Context(), limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Upcoming events retrieved successfully", events, nil)
}

// GetRecommendations godoc
// @Summary      Events picked from the caller's interests
// @Description  Upcoming events whose type is among the caller's interests, soonest first. Falls back to the newest listings.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse{data=Recommendations}
// @Router       /events/recommendations [get]
func (ctrl *controller) GetRecommendations(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	result, err := ctrl.service.GetRecommendations(c.Request.Context(), actor.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	message := "Personalized recommendations fetched successfully"
	if !result.Personalized {
		message = "No matching interests, showing general recommendations"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}

// RestockEvent godoc
// @Summary      Add tickets to an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string          true  "Event ID"
// @Param        request  body  RestockRequest  true  "Tickets to add"
// @Success      200  {object}  response.StandardApiResponse{data=EventResponse}
// @Router       /admin/events/{eventId}/tickets [post]
func (ctrl *controller) RestockEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.Restock(c.Request.Context(), eventID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tickets added successfully", event, nil)
}

// GetMovements godoc
// @Summary      Inventory journal of an event
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path   string  true   "Event ID"
// @Param        limit    query  int     false  "Most recent first, at most 500"
// @Success      200  {object}  response.StandardApiResponse{data=[]inventory.Movement}
// @Router       /admin/events/{eventId}/movements [get]
func (ctrl *controller) GetMovements(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, err := ctrl.service.GetMovements(c.Request.Context(), eventID, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Movements retrieved successfully", movements, nil)
}

func parseEventID(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return uuid.Nil, false
	}
	return eventID, true
}
