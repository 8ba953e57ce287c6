package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shinyyama/barter-backend/internal/cache"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"go.uber.org/zap"
)

// DefaultCategories is the seeded registry.
var DefaultCategories = []string{
	"Electronics",
	"Furniture",
	"Clothing",
	"Books",
	"Tools",
	"Sports Equipment",
	"Art",
	"Collectibles",
	"Toys & Games",
	"Home Decor",
	"Vehicles",
	"Services",
	"Other",
}

type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id uint64) (*model.Category, error)
	// Resolve accepts a numeric id or a slug.
	Resolve(ctx context.Context, ref string) (*model.Category, error)
	Seed(ctx context.Context, names []string) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.CategoryCache
	log   *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepository, c cache.CategoryCache, log *zap.Logger) CategoryService {
	if c == nil {
		c = cache.NopCategoryCache{}
	}
	return &categoryService{repo: repo, cache: c, log: log}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	cached, err := s.cache.GetCategories(ctx)
	if err != nil {
		s.log.Warn("category cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetCategories(ctx, list); err != nil {
		s.log.Warn("category cache write failed", zap.Error(err))
	}
	return list, nil
}

func (s *categoryService) Get(ctx context.Context, id uint64) (*model.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}

func (s *categoryService) Resolve(ctx context.Context, ref string) (*model.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.Get(ctx, id)
	}
	c, err := s.repo.FindBySlug(ctx, strings.ToLower(ref))
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}

func (s *categoryService) Seed(ctx context.Context, names []string) error {
	list := make([]model.Category, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		list = append(list, model.Category{Name: name, Slug: slug.Make(name)})
	}
	if err := s.repo.Upsert(ctx, list); err != nil {
		return err
	}
	// Refresh the cached copy with the ids the database assigned.
	fresh, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.SetCategories(ctx, fresh); err != nil {
		s.log.Warn("category cache write failed", zap.Error(err))
	}
	return nil
}
