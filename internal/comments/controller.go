package comments

import (
	"net/http"

	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListComments godoc
// @Summary      Comments on an event, newest first
// @Tags         comments
// @Produce      json
// @Param        eventId  path   string  true   "Event ID"
// @Param        page     query  int     false  "Page"
// @Param        limit    query  int     false  "Page size"
// @Success      200  {object}  response.StandardApiResponse{data=PaginatedComments}
// @Router       /comments/{eventId} [get]
func (ctrl *Controller) ListComments(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.ListByEvent(c.Request.Context(), eventID, query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Comments retrieved successfully", result, nil)
}

// AddComment godoc
// @Summary      Comment on an event
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  CreateCommentRequest  true  "Comment"
// @Success      201  {object}  response.StandardApiResponse{data=CommentResponse}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /comments [post]
func (ctrl *Controller) AddComment(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	comment, err := ctrl.service.AddComment(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Comment added successfully", comment, nil)
}

// DeleteComment godoc
// @Summary      Delete a comment
// @Description  Authors can delete their own comments, admins any
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Comment ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      403  {object}  response.StandardApiResponse
// @Router       /comments/{id} [delete]
func (ctrl *Controller) DeleteComment(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid comment ID", nil, nil)
		return
	}

	if err := ctrl.service.DeleteComment(c.Request.Context(), id, actor); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Comment removed successfully", nil, nil)
}
