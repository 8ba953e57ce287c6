package repository

import (
	"context"
	"strings"

	"github.com/shinyyama/barter-backend/internal/model"
	"gorm.io/gorm"
)

// ListingFilter narrows a listing search. Zero values impose no constraint.
type ListingFilter struct {
	Search     string
	CategoryID *uint64
}

// ListingFields are the owner-editable columns of a listing.
type ListingFields struct {
	TradeWhat  string
	ForWhat    string
	CategoryID *uint64
	// ImageURL nil leaves the stored image alone; an empty string clears it.
	ImageURL *string
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	Update(ctx context.Context, id uint64, fields ListingFields) error
	UpdateStatus(ctx context.Context, id uint64, status model.ListingStatus) error
	SetImageURL(ctx context.Context, id uint64, imageURL string) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]model.Listing, int64, error)
	ListByOwner(ctx context.Context, userID uint64) ([]model.Listing, error)
	ListWithoutImage(ctx context.Context, limit int) ([]model.Listing, error)
	SetDB(db *gorm.DB)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Omit("Owner", "Category").Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listing model.Listing
	if err := withListingRelations(r.db.WithContext(ctx)).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) Update(ctx context.Context, id uint64, fields ListingFields) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	updates := map[string]interface{}{
		"trade_what":  fields.TradeWhat,
		"for_what":    fields.ForWhat,
		"category_id": fields.CategoryID,
	}
	if fields.ImageURL != nil {
		if *fields.ImageURL == "" {
			updates["image_url"] = nil
		} else {
			updates["image_url"] = *fields.ImageURL
		}
	}
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id uint64, status model.ListingStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *listingRepository) SetImageURL(ctx context.Context, id uint64, imageURL string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Update("image_url", imageURL).Error
}

func (r *listingRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	// Messages about the listing outlive it with a NULL reference.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Message{}).
			Where("listing_id = ?", id).
			Update("listing_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Listing{}, id).Error
	})
}

func (r *listingRepository) Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]model.Listing, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		listings []model.Listing
		total    int64
	)
	base := applyListingFilter(r.db.WithContext(ctx).Model(&model.Listing{}), filter)
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return []model.Listing{}, total, nil
	}
	if err := withListingRelations(base.Session(&gorm.Session{})).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, userID uint64) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listings []model.Listing
	if err := withListingRelations(r.db.WithContext(ctx)).
		Where("by_user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) ListWithoutImage(ctx context.Context, limit int) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listings []model.Listing
	q := withListingRelations(r.db.WithContext(ctx)).
		Where("image_url IS NULL OR image_url = ''").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func applyListingFilter(q *gorm.DB, filter ListingFilter) *gorm.DB {
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(trade_what) LIKE ? ESCAPE '!' OR LOWER(for_what) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	return q
}

// Owners are loaded with the public columns only.
func withListingRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Owner", publicUserColumns).
		Preload("Category")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
