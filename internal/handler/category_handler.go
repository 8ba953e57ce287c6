package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	svc service.CategoryService
	log *zap.Logger
}

func NewCategoryHandler(svc service.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, log: log}
}

func (h *CategoryHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err, "categories")
	}
	return c.JSON(http.StatusOK, toCategoryResponses(list))
}
