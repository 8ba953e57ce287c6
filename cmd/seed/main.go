package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/config"
	"github.com/shinyyama/barter-backend/internal/db"
	"github.com/shinyyama/barter-backend/internal/logger"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedUser struct {
	Email   string
	Name    string
	IsAdmin bool
}

var seedUsers = []seedUser{
	{Email: "test@example.com", Name: "Test User", IsAdmin: true},
	{Email: "test2@example.com", Name: "Test User2"},
	{Email: "maria@example.com", Name: "Maria"},
	{Email: "kenji@example.com", Name: "Kenji"},
	{Email: "sam@example.com", Name: "Sam"},
}

type seedListing struct {
	TradeWhat    string
	ForWhat      string
	CategorySlug string
}

var seedListings = []seedListing{
	{"Road bike, 54cm frame", "Laptop", "electronics"},
	{"Oak bookshelf", "Standing desk", "furniture"},
	{"Winter parka (M)", "Hiking boots (42)", "clothing"},
	{"Complete sci-fi paperback set", "Board games", "books"},
	{"Cordless drill", "Garden tools", "tools"},
	{"Tennis racket", "Yoga mat and blocks", "sports-equipment"},
	{"Framed watercolor print", "Houseplants", "art"},
	{"Vintage stamp album", "Vinyl records", "collectibles"},
	{"Lego city set", "Puzzle collection", "toys-and-games"},
	{"Ceramic table lamp", "Wall mirror", "home-decor"},
	{"Kids bicycle", "Scooter", "vehicles"},
	{"Two hours of guitar lessons", "Bike tune-up", "services"},
	{"Sewing machine", "Anything useful", "other"},
	{"Mechanical keyboard", "Noise-cancelling headphones", "electronics"},
	{"Camping tent (2 person)", "Sleeping bag", "sports-equipment"},
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "password"
	}
	force := strings.EqualFold(os.Getenv("FORCE_SEED"), "true")
	return seed(ctx, gdb, password, force, log)
}

// seed loads the category registry, the sample users and, when the store has
// no listings yet (or force is set), the sample listings.
func seed(ctx context.Context, gdb *gorm.DB, password string, force bool, log *zap.Logger) error {
	userRepo := repository.NewUserRepository(gdb)
	listingRepo := repository.NewListingRepository(gdb)
	categories := service.NewCategoryService(repository.NewCategoryRepository(gdb), nil, log)
	users := service.NewUserService(userRepo, listingRepo, log)
	listings := service.NewListingService(listingRepo, categories, nil, nil, log)

	if err := categories.Seed(ctx, service.DefaultCategories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	log.Info("categories seeded", zap.Int("count", len(service.DefaultCategories)))

	owners := make([]*model.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := userRepo.FindByEmail(ctx, su.Email)
		if err != nil {
			return fmt.Errorf("find %s: %w", su.Email, err)
		}
		if u == nil {
			u, err = users.Register(ctx, service.RegisterInput{Email: su.Email, Name: su.Name, Password: password})
			if err != nil {
				return fmt.Errorf("register %s: %w", su.Email, err)
			}
		}
		if su.IsAdmin && !u.IsAdmin {
			if err := gdb.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Update("is_admin", true).Error; err != nil {
				return fmt.Errorf("promote %s: %w", su.Email, err)
			}
			u.IsAdmin = true
		}
		owners = append(owners, u)
	}

	_, total, err := listingRepo.Search(ctx, repository.ListingFilter{}, 1, 0)
	if err != nil {
		return fmt.Errorf("count listings: %w", err)
	}
	if total > 0 && !force {
		log.Info("listings already exist; skipping (set FORCE_SEED=true to override)", zap.Int64("count", total))
		return nil
	}

	for i, sl := range seedListings {
		cat, err := categories.Resolve(ctx, sl.CategorySlug)
		if err != nil {
			return fmt.Errorf("category %s: %w", sl.CategorySlug, err)
		}
		owner := owners[i%len(owners)]
		actor := authz.Actor{UserID: owner.ID, IsAdmin: owner.IsAdmin}
		if _, err := listings.Create(ctx, actor, service.ListingInput{
			TradeWhat:  sl.TradeWhat,
			ForWhat:    sl.ForWhat,
			CategoryID: &cat.ID,
		}); err != nil {
			return fmt.Errorf("create listing %q: %w", sl.TradeWhat, err)
		}
	}
	log.Info("listings seeded", zap.Int("count", len(seedListings)))
	return nil
}
