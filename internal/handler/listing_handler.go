package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/middleware"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
)

type ListingHandler struct {
	svc        service.ListingService
	categories service.CategoryService
	log        *zap.Logger
}

func NewListingHandler(svc service.ListingService, categories service.CategoryService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, categories: categories, log: log}
}

type ListingResponse struct {
	ID            uint64              `json:"id"`
	TradeWhat     string              `json:"tradeWhat"`
	ForWhat       string              `json:"forWhat"`
	Status        string              `json:"status"`
	StatusDisplay model.StatusDisplay `json:"statusDisplay"`
	CategoryID    *uint64             `json:"categoryId"`
	Category      *CategoryResponse   `json:"category"`
	Owner         *UserSummary        `json:"owner"`
	ImageURL      *string             `json:"imageUrl"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

// ListingDetailResponse adds what the viewer may do with the listing.
type ListingDetailResponse struct {
	ListingResponse
	CanEdit bool `json:"canEdit"`
}

type ListingFilters struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

type ListingPageResponse struct {
	Items      []ListingResponse  `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"perPage"`
	LastPage   int                `json:"lastPage"`
	Filters    ListingFilters     `json:"filters"`
	Categories []CategoryResponse `json:"categories"`
}

type ListingFormResponse struct {
	Listing    *ListingResponse   `json:"listing,omitempty"`
	Categories []CategoryResponse `json:"categories"`
}

type ListingRequest struct {
	TradeWhat  string  `json:"tradeWhat" form:"tradeWhat"`
	ForWhat    string  `json:"forWhat" form:"forWhat"`
	CategoryID *uint64 `json:"categoryId" form:"categoryId"`
	ImageURL   *string `json:"imageUrl" form:"imageUrl"`
}

type StatusRequest struct {
	Status string `json:"status" form:"status"`
}

func (r ListingRequest) input() service.ListingInput {
	return service.ListingInput{
		TradeWhat:  r.TradeWhat,
		ForWhat:    r.ForWhat,
		CategoryID: r.CategoryID,
		ImageURL:   r.ImageURL,
	}
}

func (h *ListingHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	filters := ListingFilters{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	result, err := h.svc.List(c.Request().Context(), service.ListingQuery{
		Search:   filters.Search,
		Category: filters.Category,
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		return respondError(c, h.log, err, "listings")
	}
	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err, "categories")
	}
	resp := ListingPageResponse{
		Items:      make([]ListingResponse, 0, len(result.Items)),
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PageSize,
		LastPage:   result.LastPage,
		Filters:    filters,
		Categories: toCategoryResponses(categories),
	}
	for i := range result.Items {
		resp.Items = append(resp.Items, toListingResponse(&result.Items[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	listing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	actor := middleware.ActorFrom(c)
	return c.JSON(http.StatusOK, ListingDetailResponse{
		ListingResponse: toListingResponse(listing),
		CanEdit:         authz.Allow(actor, authz.ListingUpdate, authz.ListingResource(listing.ByUserID)),
	})
}

func (h *ListingHandler) CreateForm(c echo.Context) error {
	form, err := h.svc.CreateContext(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingFormResponse(form))
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	listing, err := h.svc.Create(c.Request().Context(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.JSON(http.StatusCreated, toListingResponse(listing))
}

func (h *ListingHandler) EditForm(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	form, err := h.svc.EditContext(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingFormResponse(form))
}

func (h *ListingHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	listing, err := h.svc.Update(c.Request().Context(), middleware.ActorFrom(c), id, req.input())
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	listing, err := h.svc.SetStatus(c.Request().Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return respondError(c, h.log, err, "listing")
	}
	return c.NoContent(http.StatusNoContent)
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:            l.ID,
		TradeWhat:     l.TradeWhat,
		ForWhat:       l.ForWhat,
		Status:        string(l.Status),
		StatusDisplay: l.StatusDisplay(),
		CategoryID:    l.CategoryID,
		Category:      toCategoryResponse(l.Category),
		Owner:         toUserSummary(l.Owner),
		ImageURL:      l.ImageURL,
		CreatedAt:     formatTime(l.CreatedAt),
		UpdatedAt:     formatTime(l.UpdatedAt),
	}
}

func toListingResponses(list []model.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(list))
	for i := range list {
		out = append(out, toListingResponse(&list[i]))
	}
	return out
}

func toListingFormResponse(form *service.ListingForm) ListingFormResponse {
	resp := ListingFormResponse{Categories: toCategoryResponses(form.Categories)}
	if form.Listing != nil {
		l := toListingResponse(form.Listing)
		resp.Listing = &l
	}
	return resp
}
