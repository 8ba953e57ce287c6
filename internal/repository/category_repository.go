package repository

import (
	"context"

	"github.com/shinyyama/barter-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uint64) (*model.Category, error)
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	// Upsert inserts categories whose slug is not taken yet.
	Upsert(ctx context.Context, categories []model.Category) error
	SetDB(db *gorm.DB)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint64) (*model.Category, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var c model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Upsert(ctx context.Context, categories []model.Category) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&categories).Error
}
