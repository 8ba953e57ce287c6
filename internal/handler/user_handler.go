package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc service.UserService
	log *zap.Logger
}

func NewUserHandler(svc service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

type ProfileResponse struct {
	User     UserSummary       `json:"user"`
	Listings []ListingResponse `json:"listings"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	u, err := h.svc.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, h.log, err, "user")
	}
	return c.JSON(http.StatusCreated, toUserSummary(u))
}

func (h *UserHandler) Profile(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	p, err := h.svc.Profile(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err, "user")
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		User:     *toUserSummary(p.User),
		Listings: toListingResponses(p.Listings),
	})
}
