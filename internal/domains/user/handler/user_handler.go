package handler

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/shared/middleware"
	"roastery-backend/internal/shared/response"
)

// CookieConfig mô tả session cookie
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// UserHandler xử lý HTTP requests cho user domain
type UserHandler struct {
	service user.Service
	cookie  CookieConfig
}

func NewUserHandler(service user.Service, cookie CookieConfig) *UserHandler {
	return &UserHandler{
		service: service,
		cookie:  cookie,
	}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register xử lý POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	userDTO, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/me")
	response.Success(c, http.StatusCreated, "Account created", userDTO)
}

// Login xử lý POST /auth/login. Token chỉ nằm trong HttpOnly cookie.
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	token, u, err := h.service.Issue(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setSessionCookie(c, token.Token, int(time.Until(token.ExpiresAt).Seconds()))

	response.Success(c, http.StatusOK, "Login successful", user.LoginResponse{
		ExpiresAt: token.ExpiresAt,
		User:      u.ToDTO(),
	})
}

// Logout chỉ xóa cookie phía client; token hết hạn theo exp
func (h *UserHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, "Logged out", nil)
}

func (h *UserHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cookie.Name,
		value,
		maxAge,
		"/",
		h.cookie.Domain,
		h.cookie.Secure,
		true, // HttpOnly
	)
}

// ========================================
// PROFILE
// ========================================

// GetProfile xử lý GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", dto)
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// ListUsers xử lý GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req user.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	req.SetDefaults()

	result, err := h.service.ListUsers(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Users, response.NewMeta(req.Page, req.Limit, result.Total))
}

// UpdateUserRole xử lý PATCH /admin/users/:id/role
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	actor, targetID, ok := h.adminTarget(c)
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	if err := h.service.UpdateUserRole(c.Request.Context(), actor.UserID, targetID, req.Role); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Role updated", nil)
}

// UpdateUserStatus xử lý PATCH /admin/users/:id/status
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor, targetID, ok := h.adminTarget(c)
	if !ok {
		return
	}

	var req user.UpdateStatusRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	if err := h.service.SetUserActive(c.Request.Context(), actor.UserID, targetID, *req.IsActive); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Status updated", nil)
}

func (h *UserHandler) adminTarget(c *gin.Context) (*user.Principal, uuid.UUID, bool) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return nil, uuid.Nil, false
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return nil, uuid.Nil, false
	}
	return actor, targetID, true
}

// ========================================
// HELPERS
// ========================================

func (h *UserHandler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ValidationError(c, verrs)

	case errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrSelfModification):
		response.BadRequest(c, err.Error())

	// 401 - cùng message cho sai email/password
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())

	case errors.Is(err, user.ErrAccountInactive):
		response.Error(c, http.StatusUnauthorized, "ACCOUNT_INACTIVE", err.Error())

	case errors.Is(err, user.ErrForbidden):
		response.Forbidden(c, err.Error())

	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, err.Error())

	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, err.Error())

	case errors.Is(err, user.ErrTooManyAttempts):
		response.TooManyRequests(c, err.Error())

	default:
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("user request failed")
		response.InternalServerError(c, "Internal server error")
	}
}

type validatable interface {
	Validate() error
}

func (h *UserHandler) bindAndValidate(c *gin.Context, req validatable) error {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return err
	}

	if err := req.Validate(); err != nil {
		h.handleError(c, err)
		return err
	}
	return nil
}
