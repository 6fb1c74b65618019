package auth

import (
	"errors"
	"net/http"

	"eventhub/internal/events"
	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
	log       *logger.Logger
}

func NewController(service Service, log *logger.Logger) *Controller {
	v := validator.New()
	// profile interests are event types
	if err := events.RegisterOn(v); err != nil {
		panic(err)
	}
	return &Controller{
		service:   service,
		validator: v,
		log:       log.WithComponent("auth"),
	}
}

// bind decodes the JSON body and runs the validate tags
func (c *Controller) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}
	if err := c.validator.Struct(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return false
	}
	return true
}

// Register godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  RegisterRequest  true  "Registration"
// @Success      201  {object}  response.StandardApiResponse{data=AuthResponse}
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /auth/register [post]
func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.RespondJSON(ctx, "error", http.StatusConflict, "User with this email already exists", nil, nil)
		default:
			c.log.ErrorWithContext(ctx.Request.Context(), "register failed", err, nil)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to register user", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "User registered successfully", resp, nil)
}

// Login godoc
// @Summary      Exchange credentials for tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  response.StandardApiResponse{data=AuthResponse}
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/login [post]
func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.log.LogAuthFailure(ctx.Request.Context(), "invalid credentials", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
		default:
			c.log.ErrorWithContext(ctx.Request.Context(), "login failed", err, nil)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to login", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

// RefreshToken godoc
// @Summary      Rotate a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  RefreshTokenRequest  true  "Refresh token"
// @Success      200  {object}  response.StandardApiResponse{data=TokenPair}
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/refresh [post]
func (c *Controller) RefreshToken(ctx *gin.Context) {
	var req RefreshTokenRequest
	if !c.bind(ctx, &req) {
		return
	}

	tokenPair, err := c.service.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
			c.log.LogAuthFailure(ctx.Request.Context(), "invalid refresh token", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired refresh token", nil, nil)
		case errors.Is(err, ErrUserNotFound):
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to refresh token", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", tokenPair, nil)
}

// Logout godoc
// @Summary      Log out
// @Description  Tokens are stateless; clients discard them
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse
// @Router       /auth/logout [post]
func (c *Controller) Logout(ctx *gin.Context) {
	var req LogoutRequest
	_ = ctx.ShouldBindJSON(&req)

	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

// ChangePassword godoc
// @Summary      Change the caller's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  ChangePasswordRequest  true  "Passwords"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/change-password [put]
func (c *Controller) ChangePassword(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req ChangePasswordRequest
	if !c.bind(ctx, &req) {
		return
	}

	err = c.service.ChangePassword(ctx.Request.Context(), actor.ID.String(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Current password is incorrect", nil, nil)
		case errors.Is(err, ErrUserNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "User not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to change password", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Password changed successfully", nil, nil)
}

// GetMe godoc
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse{data=UserResponse}
// @Router       /auth/me [get]
func (c *Controller) GetMe(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	user, err := c.service.GetMe(ctx.Request.Context(), actor.ID.String())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "User not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to load user", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", user, nil)
}

// GetProfile godoc
// @Summary      Current user's profile with interests
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse{data=UserResponse}
// @Router       /users/profile [get]
func (c *Controller) GetProfile(ctx *gin.Context) {
	c.GetMe(ctx)
}

// UpdateProfile godoc
// @Summary      Update name, email, password or interests
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  UpdateProfileRequest  true  "Profile changes"
// @Success      200  {object}  response.StandardApiResponse{data=UserResponse}
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /users/profile [put]
func (c *Controller) UpdateProfile(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req UpdateProfileRequest
	if !c.bind(ctx, &req) {
		return
	}

	user, err := c.service.UpdateProfile(ctx.Request.Context(), actor.ID.String(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.RespondJSON(ctx, "error", http.StatusConflict, "User with this email already exists", nil, nil)
		case errors.Is(err, ErrUserNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "User not found", nil, nil)
		default:
			c.log.ErrorWithContext(ctx.Request.Context(), "profile update failed", err, nil)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update profile", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Profile updated successfully", user, nil)
}

// ListUsers godoc
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Page size"
// @Success      200  {object}  response.StandardApiResponse{data=PaginatedUsers}
// @Router       /admin/users [get]
func (c *Controller) ListUsers(ctx *gin.Context) {
	var query UserListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListUsers(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list users", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Users retrieved successfully", result, nil)
}
