package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/middleware"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc service.MessageService
	log *zap.Logger
}

func NewMessageHandler(svc service.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

type ListingSummary struct {
	ID        uint64 `json:"id"`
	TradeWhat string `json:"tradeWhat"`
	ForWhat   string `json:"forWhat"`
}

type MessageResponse struct {
	ID         uint64          `json:"id"`
	FromUserID uint64          `json:"fromUserId"`
	ToUserID   uint64          `json:"toUserId"`
	ListingID  *uint64         `json:"listingId"`
	Message    string          `json:"message"`
	Read       bool            `json:"read"`
	Sender     *UserSummary    `json:"sender,omitempty"`
	Recipient  *UserSummary    `json:"recipient,omitempty"`
	Listing    *ListingSummary `json:"listing,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

type InboxResponse struct {
	Received    []MessageResponse `json:"received"`
	Sent        []MessageResponse `json:"sent"`
	UnreadCount int64             `json:"unreadCount"`
}

type ComposeResponse struct {
	Recipient *UserSummary    `json:"recipient"`
	Listing   *ListingSummary `json:"listing"`
}

type ReplyResponse struct {
	OriginalMessage MessageResponse `json:"originalMessage"`
	Recipient       *UserSummary    `json:"recipient"`
	Listing         *ListingSummary `json:"listing"`
}

type SendMessageRequest struct {
	ToUserID  uint64  `json:"toUserId" form:"toUserId"`
	ListingID *uint64 `json:"listingId" form:"listingId"`
	Message   string  `json:"message" form:"message"`
}

func (h *MessageHandler) Inbox(c echo.Context) error {
	inbox, err := h.svc.Inbox(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.log, err, "messages")
	}
	return c.JSON(http.StatusOK, InboxResponse{
		Received:    toMessageResponses(inbox.Received),
		Sent:        toMessageResponses(inbox.Sent),
		UnreadCount: inbox.UnreadCount,
	})
}

func (h *MessageHandler) Compose(c echo.Context) error {
	to, ok := optionalQueryID(c, "to")
	if !ok {
		return badRequest(c, "invalid recipient id")
	}
	listingID, ok := optionalQueryID(c, "listing")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	cc, err := h.svc.ComposeContext(c.Request().Context(), middleware.ActorFrom(c), to, listingID)
	if err != nil {
		return respondError(c, h.log, err, "recipient or listing")
	}
	return c.JSON(http.StatusOK, ComposeResponse{
		Recipient: toUserSummary(cc.Recipient),
		Listing:   toListingSummary(cc.Listing),
	})
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	msg, err := h.svc.Send(c.Request().Context(), middleware.ActorFrom(c), service.MessageInput{
		ToUserID:  req.ToUserID,
		ListingID: req.ListingID,
		Body:      req.Message,
	})
	if err != nil {
		return respondError(c, h.log, err, "message")
	}
	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h *MessageHandler) Show(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	msg, err := h.svc.Show(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err, "message")
	}
	return c.JSON(http.StatusOK, toMessageResponse(msg))
}

func (h *MessageHandler) Reply(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	rc, err := h.svc.ReplyContext(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err, "message")
	}
	return c.JSON(http.StatusOK, ReplyResponse{
		OriginalMessage: toMessageResponse(rc.Original),
		Recipient:       toUserSummary(rc.Recipient),
		Listing:         toListingSummary(rc.Listing),
	})
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	n, err := h.svc.UnreadCount(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.log, err, "messages")
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

func toListingSummary(l *model.Listing) *ListingSummary {
	if l == nil {
		return nil
	}
	return &ListingSummary{ID: l.ID, TradeWhat: l.TradeWhat, ForWhat: l.ForWhat}
}

func toMessageResponse(m *model.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		ListingID:  m.ListingID,
		Message:    m.Body,
		Read:       m.Read,
		Sender:     toUserSummary(m.Sender),
		Recipient:  toUserSummary(m.Recipient),
		Listing:    toListingSummary(m.Listing),
		CreatedAt:  formatTime(m.CreatedAt),
	}
}

func toMessageResponses(list []model.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(list))
	for i := range list {
		out = append(out, toMessageResponse(&list[i]))
	}
	return out
}
