package service

import (
	"strconv"
	"testing"

	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/db/dbtest"
	"github.com/shinyyama/barter-backend/internal/events"
	"github.com/shinyyama/barter-backend/internal/metrics"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	events     *events.Recorder
	metrics    *metrics.Metrics
	categories CategoryService
	listings   ListingService
	messages   MessageService
	users      UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	log := zaptest.NewLogger(t)
	rec := &events.Recorder{}
	m := metrics.New("test")

	listingRepo := repository.NewListingRepository(gdb)
	userRepo := repository.NewUserRepository(gdb)
	categories := NewCategoryService(repository.NewCategoryRepository(gdb), nil, log)
	return &fixture{
		db:         gdb,
		events:     rec,
		metrics:    m,
		categories: categories,
		listings:   NewListingService(listingRepo, categories, rec, m, log),
		messages:   NewMessageService(repository.NewMessageRepository(gdb), userRepo, listingRepo, rec, m, log),
		users:      NewUserService(userRepo, listingRepo, log),
	}
}

func actorOf(u *model.User) authz.Actor {
	return authz.Actor{UserID: u.ID, IsAdmin: u.IsAdmin}
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}

func fmtID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
