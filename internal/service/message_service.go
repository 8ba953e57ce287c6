package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/events"
	"github.com/shinyyama/barter-backend/internal/metrics"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"go.uber.org/zap"
)

const minMessageLength = 2

type Inbox struct {
	Received    []model.Message
	Sent        []model.Message
	UnreadCount int64
}

type ComposeContext struct {
	Recipient *model.User
	Listing   *model.Listing
}

type ReplyContext struct {
	Original  *model.Message
	Recipient *model.User
	Listing   *model.Listing
}

type MessageInput struct {
	ToUserID  uint64
	ListingID *uint64
	Body      string
}

type MessageService interface {
	Inbox(ctx context.Context, actor authz.Actor) (*Inbox, error)
	// ComposeContext resolves the optional recipient and listing for a new
	// message form. The recipient defaults to the listing owner.
	ComposeContext(ctx context.Context, actor authz.Actor, toUserID, listingID *uint64) (*ComposeContext, error)
	Send(ctx context.Context, actor authz.Actor, in MessageInput) (*model.Message, error)
	// Show returns a message to one of its participants. Viewing as the
	// recipient marks it read.
	Show(ctx context.Context, actor authz.Actor, id uint64) (*model.Message, error)
	ReplyContext(ctx context.Context, actor authz.Actor, id uint64) (*ReplyContext, error)
	UnreadCount(ctx context.Context, actor authz.Actor) (int64, error)
}

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	listings repository.ListingRepository
	pub      events.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, listings repository.ListingRepository, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) MessageService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New("barter")
	}
	return &messageService{messages: messages, users: users, listings: listings, pub: pub, metrics: m, log: log}
}

func (s *messageService) Inbox(ctx context.Context, actor authz.Actor) (*Inbox, error) {
	if err := s.authorize(actor, authz.MessageInbox, authz.Resource{}, 0); err != nil {
		return nil, err
	}
	received, err := s.messages.ListReceived(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	sent, err := s.messages.ListSent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Inbox{Received: received, Sent: sent, UnreadCount: unread}, nil
}

func (s *messageService) ComposeContext(ctx context.Context, actor authz.Actor, toUserID, listingID *uint64) (*ComposeContext, error) {
	if err := s.authorize(actor, authz.MessageCreate, authz.Resource{}, 0); err != nil {
		return nil, err
	}
	out := &ComposeContext{}
	if listingID != nil {
		l, err := s.listings.FindByID(ctx, *listingID)
		if err != nil {
			return nil, translateNotFound(err)
		}
		out.Listing = l
	}
	recipientID := toUserID
	if recipientID == nil && out.Listing != nil {
		recipientID = &out.Listing.ByUserID
	}
	if recipientID != nil {
		u, err := s.users.FindByID(ctx, *recipientID)
		if err != nil {
			return nil, translateNotFound(err)
		}
		out.Recipient = u
	}
	return out, nil
}

func (s *messageService) Send(ctx context.Context, actor authz.Actor, in MessageInput) (*model.Message, error) {
	if err := s.authorize(actor, authz.MessageCreate, authz.Resource{}, 0); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		verr.Add("message", "is required")
	} else if utf8.RuneCountInString(body) < minMessageLength {
		verr.Add("message", "must be at least 2 characters")
	}
	if in.ToUserID == 0 {
		verr.Add("toUserId", "is required")
	} else if _, err := s.users.FindByID(ctx, in.ToUserID); err != nil {
		if !errors.Is(translateNotFound(err), ErrNotFound) {
			return nil, err
		}
		verr.Add("toUserId", "selected recipient is invalid")
	}
	if in.ListingID != nil {
		if _, err := s.listings.FindByID(ctx, *in.ListingID); err != nil {
			if !errors.Is(translateNotFound(err), ErrNotFound) {
				return nil, err
			}
			verr.Add("listingId", "selected listing is invalid")
		}
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	msg := &model.Message{
		FromUserID: actor.UserID,
		ToUserID:   in.ToUserID,
		ListingID:  in.ListingID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.metrics.MessagesSent.Inc()
	if err := s.pub.Publish(ctx, events.SubjectMessageSent, events.MessageEvent{
		MessageID:  msg.ID,
		FromUserID: msg.FromUserID,
		ToUserID:   msg.ToUserID,
		ListingID:  msg.ListingID,
		At:         time.Now(),
	}); err != nil {
		s.log.Warn("publish event failed", zap.String("subject", events.SubjectMessageSent), zap.Error(err))
	}
	return msg, nil
}

func (s *messageService) Show(ctx context.Context, actor authz.Actor, id uint64) (*model.Message, error) {
	msg, err := s.loadAuthorized(ctx, actor, authz.MessageView, id)
	if err != nil {
		return nil, err
	}
	if msg.ToUserID == actor.UserID && !msg.Read {
		flipped, err := s.messages.MarkRead(ctx, msg.ID)
		if err != nil {
			return nil, err
		}
		if flipped {
			s.metrics.MessagesRead.Inc()
		}
		msg.Read = true
	}
	return msg, nil
}

func (s *messageService) ReplyContext(ctx context.Context, actor authz.Actor, id uint64) (*ReplyContext, error) {
	msg, err := s.loadAuthorized(ctx, actor, authz.MessageReply, id)
	if err != nil {
		return nil, err
	}
	recipient, err := s.users.FindByID(ctx, msg.Counterpart(actor.UserID))
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &ReplyContext{Original: msg, Recipient: recipient, Listing: msg.Listing}, nil
}

func (s *messageService) UnreadCount(ctx context.Context, actor authz.Actor) (int64, error) {
	if err := s.authorize(actor, authz.MessageInbox, authz.Resource{}, 0); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, actor.UserID)
}

func (s *messageService) loadAuthorized(ctx context.Context, actor authz.Actor, action authz.Action, id uint64) (*model.Message, error) {
	// Anonymous callers learn nothing about which ids exist.
	if !actor.Authenticated() {
		return nil, s.authorize(actor, action, authz.Resource{}, id)
	}
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := s.authorize(actor, action, authz.MessageResource(msg.FromUserID, msg.ToUserID), msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) authorize(actor authz.Actor, action authz.Action, res authz.Resource, messageID uint64) error {
	if err := authz.Check(actor, action, res); err != nil {
		s.metrics.AuthzDenied.WithLabelValues(string(action)).Inc()
		s.log.Warn("message action denied",
			zap.String("action", string(action)),
			zap.Uint64("actor_id", actor.UserID),
			zap.Uint64("message_id", messageID))
		return err
	}
	return nil
}
