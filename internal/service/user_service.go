package service

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Profile is a user's public page: their name and the listings they own.
type Profile struct {
	User     *model.User
	Listings []model.Listing
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Get(ctx context.Context, id uint64) (*model.User, error)
	Profile(ctx context.Context, id uint64) (*Profile, error)
	// ResolveFirebase maps a verified Firebase identity onto a local user,
	// linking by verified email or creating the user on first sight.
	ResolveFirebase(ctx context.Context, id FirebaseIdentity) (*model.User, error)
}

// FirebaseIdentity carries the claims of a verified Firebase ID token.
type FirebaseIdentity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

type userService struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	log      *zap.Logger
}

func NewUserService(users repository.UserRepository, listings repository.ListingRepository, log *zap.Logger) UserService {
	return &userService{users: users, listings: listings, log: log}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	verr := &ValidationError{}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" {
		verr.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "must be a valid email address")
	} else {
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			verr.Add("email", "has already been taken")
		}
	}
	if name == "" {
		verr.Add("name", "is required")
	} else if utf8.RuneCountInString(name) > 120 {
		verr.Add("name", "must be at most 120 characters")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		verr.Add("password", "must be at least 8 characters")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Name: name, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Uint64("user_id", user.ID))
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return u, nil
}

func (s *userService) Profile(ctx context.Context, id uint64) (*Profile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	listings, err := s.listings.ListByOwner(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Listings: listings}, nil
}

func (s *userService) ResolveFirebase(ctx context.Context, id FirebaseIdentity) (*model.User, error) {
	uid := id.UID
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	name := strings.TrimSpace(id.Name)
	if name == "" && email != "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if email != "" && id.EmailVerified {
		u, err = s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if u != nil {
			// An address already bound to another Firebase account stays with it.
			linked, err := s.users.LinkFirebaseUID(ctx, u.ID, uid)
			if err != nil {
				return nil, err
			}
			if !linked {
				s.log.Warn("firebase uid refused for linked email",
					zap.Uint64("user_id", u.ID), zap.String("uid", uid))
				return nil, ErrUnauthenticated
			}
			u.FirebaseUID = &uid
			return u, nil
		}
	} else {
		// Unverified addresses are never claimed, and phone or anonymous
		// sign-ins carry none; a placeholder keeps the unique index intact.
		email = uid + "@users.firebase.invalid"
	}

	if name == "" {
		name = uid
	}
	u = &model.User{Email: email, Name: name, FirebaseUID: &uid}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created from firebase identity", zap.Uint64("user_id", u.ID))
	return u, nil
}
