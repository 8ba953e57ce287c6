package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
)

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func NewValidationResponse(fields map[string]string) ErrorResponse {
	resp := NewErrorResponse("validation_failed", "the given data was invalid")
	resp.Error.Fields = fields
	return resp
}

// respondError maps service errors onto the JSON error envelope. what names
// the resource for not-found and internal messages.
func respondError(c echo.Context, log *zap.Logger, err error, what string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, NewValidationResponse(verr.Fields))
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "authentication required"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "you are not allowed to do that"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", what+" not found"))
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to process "+what))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	return service.ParseID(c.Param("id"))
}

// optionalQueryID parses an optional id query parameter. ok is false only
// for a present but malformed value.
func optionalQueryID(c echo.Context, name string) (*uint64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	id, ok := service.ParseID(raw)
	if !ok {
		return nil, false
	}
	return &id, true
}

type UserSummary struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func toUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name}
}

type CategoryResponse struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func toCategoryResponse(c *model.Category) *CategoryResponse {
	if c == nil {
		return nil
	}
	return &CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func toCategoryResponses(list []model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, *toCategoryResponse(&list[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
