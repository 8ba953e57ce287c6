package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shinyyama/barter-backend/internal/db/dbtest"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Name: "Ann", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("correct horse")))

	tests := []struct {
		name   string
		in     RegisterInput
		fields []string
	}{
		{"duplicate email", RegisterInput{Email: "ann@example.com", Name: "Other", Password: "password1"}, []string{"email"}},
		{"malformed email", RegisterInput{Email: "not-an-email", Name: "X", Password: "password1"}, []string{"email"}},
		{"display name form", RegisterInput{Email: "Bob <bob@example.com>", Name: "Bob", Password: "password1"}, []string{"email"}},
		{"short password", RegisterInput{Email: "new@example.com", Name: "New", Password: "short"}, []string{"password"}},
		{"everything missing", RegisterInput{}, []string{"email", "name", "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "a@example.com", "Alice")
	bob := dbtest.User(t, f.db, "b@example.com", "Bob")
	dbtest.Listing(t, f.db, &model.Listing{TradeWhat: "Bike", ForWhat: "Laptop", ByUserID: alice.ID})
	dbtest.Listing(t, f.db, &model.Listing{TradeWhat: "Desk", ForWhat: "Chair", ByUserID: bob.ID})

	p, err := f.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.User.Name)
	require.Len(t, p.Listings, 1)
	assert.Equal(t, "Bike", p.Listings[0].TradeWhat)

	_, err = f.users.Profile(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveFirebase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := dbtest.User(t, f.db, "linked@example.com", "Linked")

	u, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-1", Email: "Linked@example.com", EmailVerified: true, Name: "Whatever"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID, "links by verified email")
	require.NotNil(t, u.FirebaseUID)
	assert.Equal(t, "uid-1", *u.FirebaseUID)

	again, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-1"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)

	fresh, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-2", Email: "new@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, fresh.ID)
	assert.Equal(t, "new", fresh.Name)
	assert.Equal(t, "new@example.com", fresh.Email)

	anon, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-3", Name: "Phone User"})
	require.NoError(t, err)
	assert.Equal(t, "uid-3@users.firebase.invalid", anon.Email)
	assert.Equal(t, "Phone User", anon.Name)

	_, err = f.users.ResolveFirebase(ctx, FirebaseIdentity{Email: "x@example.com", EmailVerified: true})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveFirebaseNeverTakesOverAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.User(t, f.db, "v@example.com", "Owner")

	linked, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-owner", Email: "v@example.com", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, owner.ID, linked.ID)

	t.Run("verified email already linked to another uid", func(t *testing.T) {
		_, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-other", Email: "v@example.com", EmailVerified: true})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unverified email gets its own account", func(t *testing.T) {
		u, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-unverified", Email: "V@example.com"})
		require.NoError(t, err)
		assert.NotEqual(t, owner.ID, u.ID)
		assert.Equal(t, "uid-unverified@users.firebase.invalid", u.Email)
	})

	t.Run("unverified email does not link an unlinked user", func(t *testing.T) {
		plain := dbtest.User(t, f.db, "plain@example.com", "Plain")
		u, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-plain", Email: "plain@example.com"})
		require.NoError(t, err)
		assert.NotEqual(t, plain.ID, u.ID)

		reloaded, err := f.users.Get(ctx, plain.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.FirebaseUID)
	})

	again, err := f.users.ResolveFirebase(ctx, FirebaseIdentity{UID: "uid-owner"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)
}
