package service

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/events"
	"github.com/shinyyama/barter-backend/internal/metrics"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 100
)

type ListingInput struct {
	TradeWhat  string
	ForWhat    string
	CategoryID *uint64
	// On update a nil ImageURL keeps the current image and a blank one
	// removes it.
	ImageURL *string
}

// ListingQuery composes the public listing index. Category is a category id
// or slug; empty strings impose no constraint.
type ListingQuery struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

type ListingPage struct {
	Items    []model.Listing
	Total    int64
	Page     int
	PageSize int
	LastPage int
}

// ListingForm is what a create or edit form needs. Listing is nil for create.
type ListingForm struct {
	Listing    *model.Listing
	Categories []model.Category
}

type ListingService interface {
	Create(ctx context.Context, actor authz.Actor, in ListingInput) (*model.Listing, error)
	Get(ctx context.Context, id uint64) (*model.Listing, error)
	CreateContext(ctx context.Context, actor authz.Actor) (*ListingForm, error)
	// EditContext returns the listing for its edit form; owner only.
	EditContext(ctx context.Context, actor authz.Actor, id uint64) (*ListingForm, error)
	Update(ctx context.Context, actor authz.Actor, id uint64, in ListingInput) (*model.Listing, error)
	SetStatus(ctx context.Context, actor authz.Actor, id uint64, status string) (*model.Listing, error)
	Delete(ctx context.Context, actor authz.Actor, id uint64) error
	List(ctx context.Context, q ListingQuery) (*ListingPage, error)
	ListByOwner(ctx context.Context, userID uint64) ([]model.Listing, error)
}

type listingService struct {
	repo       repository.ListingRepository
	categories CategoryService
	pub        events.Publisher
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewListingService(repo repository.ListingRepository, categories CategoryService, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) ListingService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New("barter")
	}
	return &listingService{repo: repo, categories: categories, pub: pub, metrics: m, log: log}
}

func (s *listingService) Create(ctx context.Context, actor authz.Actor, in ListingInput) (*model.Listing, error) {
	if err := s.authorize(actor, authz.ListingCreate, authz.Resource{}, 0); err != nil {
		return nil, err
	}
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	listing := &model.Listing{
		TradeWhat:  in.TradeWhat,
		ForWhat:    in.ForWhat,
		Status:     model.ListingStatusAvailable,
		ByUserID:   actor.UserID,
		CategoryID: in.CategoryID,
	}
	if in.ImageURL != nil && *in.ImageURL != "" {
		listing.ImageURL = in.ImageURL
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}
	s.metrics.ListingsCreated.Inc()
	s.publish(ctx, events.SubjectListingCreated, events.ListingEvent{
		ListingID: listing.ID,
		OwnerID:   listing.ByUserID,
		Status:    string(listing.Status),
		At:        time.Now(),
	})
	return s.Get(ctx, listing.ID)
}

func (s *listingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return listing, nil
}

func (s *listingService) CreateContext(ctx context.Context, actor authz.Actor) (*ListingForm, error) {
	if err := s.authorize(actor, authz.ListingCreate, authz.Resource{}, 0); err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListingForm{Categories: categories}, nil
}

func (s *listingService) EditContext(ctx context.Context, actor authz.Actor, id uint64) (*ListingForm, error) {
	listing, err := s.loadAuthorized(ctx, actor, authz.ListingEdit, id)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListingForm{Listing: listing, Categories: categories}, nil
}

func (s *listingService) Update(ctx context.Context, actor authz.Actor, id uint64, in ListingInput) (*model.Listing, error) {
	listing, err := s.loadAuthorized(ctx, actor, authz.ListingUpdate, id)
	if err != nil {
		return nil, err
	}
	in, err = s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, listing.ID, repository.ListingFields{
		TradeWhat:  in.TradeWhat,
		ForWhat:    in.ForWhat,
		CategoryID: in.CategoryID,
		ImageURL:   in.ImageURL,
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.SubjectListingUpdated, events.ListingEvent{
		ListingID: listing.ID,
		OwnerID:   listing.ByUserID,
		Status:    string(listing.Status),
		At:        time.Now(),
	})
	return s.Get(ctx, listing.ID)
}

func (s *listingService) SetStatus(ctx context.Context, actor authz.Actor, id uint64, status string) (*model.Listing, error) {
	listing, err := s.loadAuthorized(ctx, actor, authz.ListingSetStatus, id)
	if err != nil {
		return nil, err
	}
	next := model.ListingStatus(strings.TrimSpace(status))
	if !next.Valid() {
		verr := &ValidationError{}
		verr.Add("status", "must be one of available, pending, completed")
		return nil, verr
	}
	prev := listing.Status
	if err := s.repo.UpdateStatus(ctx, listing.ID, next); err != nil {
		return nil, err
	}
	s.metrics.ListingStatusChanges.WithLabelValues(string(prev), string(next)).Inc()
	s.publish(ctx, events.SubjectListingStatusChanged, events.ListingEvent{
		ListingID:  listing.ID,
		OwnerID:    listing.ByUserID,
		Status:     string(next),
		PrevStatus: string(prev),
		At:         time.Now(),
	})
	return s.Get(ctx, listing.ID)
}

func (s *listingService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	listing, err := s.loadAuthorized(ctx, actor, authz.ListingDelete, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, listing.ID); err != nil {
		return err
	}
	s.metrics.ListingsDeleted.Inc()
	s.publish(ctx, events.SubjectListingDeleted, events.ListingEvent{
		ListingID: listing.ID,
		OwnerID:   listing.ByUserID,
		At:        time.Now(),
	})
	return nil
}

func (s *listingService) List(ctx context.Context, q ListingQuery) (*ListingPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	result := &ListingPage{Items: []model.Listing{}, Page: page, PageSize: size, LastPage: 1}

	filter := repository.ListingFilter{Search: q.Search}
	if ref := strings.TrimSpace(q.Category); ref != "" {
		c, err := s.categories.Resolve(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			// An unknown category matches nothing, same as an exact
			// match on an id no listing carries.
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &c.ID
	}

	// Pages past the end come back empty; keep the offset from overflowing.
	offset := math.MaxInt
	if page-1 < math.MaxInt/size {
		offset = (page - 1) * size
	}
	items, total, err := s.repo.Search(ctx, filter, size, offset)
	if err != nil {
		return nil, err
	}
	result.Items = items
	result.Total = total
	if total > 0 {
		result.LastPage = int((total + int64(size) - 1) / int64(size))
	}
	return result, nil
}

func (s *listingService) ListByOwner(ctx context.Context, userID uint64) ([]model.Listing, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// loadAuthorized fetches the listing and runs the gate: a missing listing is
// reported before a denied actor, and a denied actor before any validation.
func (s *listingService) loadAuthorized(ctx context.Context, actor authz.Actor, action authz.Action, id uint64) (*model.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, action, authz.ListingResource(listing.ByUserID), listing.ID); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *listingService) authorize(actor authz.Actor, action authz.Action, res authz.Resource, listingID uint64) error {
	if err := authz.Check(actor, action, res); err != nil {
		s.metrics.AuthzDenied.WithLabelValues(string(action)).Inc()
		s.log.Warn("listing action denied",
			zap.String("action", string(action)),
			zap.Uint64("actor_id", actor.UserID),
			zap.Uint64("listing_id", listingID),
			zap.Uint64("owner_id", res.OwnerID))
		return err
	}
	return nil
}

func (s *listingService) validate(ctx context.Context, in ListingInput) (ListingInput, error) {
	verr := &ValidationError{}
	in.TradeWhat = strings.TrimSpace(in.TradeWhat)
	in.ForWhat = strings.TrimSpace(in.ForWhat)
	if in.TradeWhat == "" {
		verr.Add("tradeWhat", "is required")
	} else if len(in.TradeWhat) > 255 {
		verr.Add("tradeWhat", "must be at most 255 characters")
	}
	if in.ForWhat == "" {
		verr.Add("forWhat", "is required")
	} else if len(in.ForWhat) > 255 {
		verr.Add("forWhat", "must be at most 255 characters")
	}
	if in.CategoryID == nil {
		verr.Add("categoryId", "is required")
	} else if _, err := s.categories.Get(ctx, *in.CategoryID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return in, err
		}
		verr.Add("categoryId", "selected category is invalid")
	}
	if in.ImageURL != nil {
		raw := strings.TrimSpace(*in.ImageURL)
		switch {
		case raw == "":
			in.ImageURL = &raw
		case !isHTTPURL(raw):
			verr.Add("imageUrl", "must be an http(s) URL")
		default:
			in.ImageURL = &raw
		}
	}
	return in, verr.errOrNil()
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Events are best-effort: a broker outage never fails the request.
func (s *listingService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.pub.Publish(ctx, subject, data); err != nil {
		s.log.Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
	}
}

// ParseID is shared by handlers for path and query ids.
func ParseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
