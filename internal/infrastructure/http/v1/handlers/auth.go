package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/auth"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves registration, login, and staff management.
type AuthHandler struct {
	*BaseHandler
	svc *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, svc *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes wires public and protected auth endpoints.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	protected.POST("/staff", h.AddStaff)
	protected.GET("/staff", h.ListStaff)
	protected.DELETE("/staff/:id", h.Deactivate)
}

func userResponse(u *auth.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		TenantID:  u.TenantID,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     u.Roles,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Register creates a new tenant owner account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, userResponse(user))
}

// Login issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        userResponse(user),
	})
}

// AddStaff creates a staff account in the caller's tenant.
func (h *AuthHandler) AddStaff(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.AddStaff(c.Request.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, userResponse(user))
}

// ListStaff returns the caller's tenant accounts.
func (h *AuthHandler) ListStaff(c *gin.Context) {
	users, err := h.svc.ListStaff(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	h.OK(c, dto.ListResponse{Items: items, Total: int64(len(items))})
}

// Deactivate disables an account in the caller's tenant.
func (h *AuthHandler) Deactivate(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
