package repository

import (
	"context"
	"testing"
	"time"

	"petstop/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repos Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Password: "hash"}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	u := seedUser(t, repos, "a@example.com")
	assert.NotZero(t, u.ID)

	err := repos.Users.Create(ctx, &models.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repos.Users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repos.Users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	other := seedUser(t, repos, "b@example.com")
	other.Email = "a@example.com"
	assert.ErrorIs(t, repos.Users.Update(ctx, other), ErrDuplicate)
}

func TestMemoryPetSitterLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	u := seedUser(t, repos, "sitter@example.com")

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	sitter := &models.PetSitter{
		UserID:       u.ID,
		Name:         "Kim",
		Location:     "Berlin",
		Availability: []models.Availability{{StartDate: start, EndDate: start.Add(8 * time.Hour)}},
	}
	require.NoError(t, repos.PetSitters.Create(ctx, sitter))

	assert.ErrorIs(t, repos.PetSitters.Create(ctx, &models.PetSitter{UserID: u.ID, Name: "Again"}), ErrDuplicate)

	owner, err := repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, owner.PetSitterID)
	assert.Equal(t, sitter.ID, *owner.PetSitterID)

	got, err := repos.PetSitters.GetByID(ctx, sitter.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "sitter@example.com", got.User.Email)
	require.Len(t, got.Availability, 1)

	require.NoError(t, repos.PetSitters.AddAvailability(ctx, &models.Availability{
		PetSitterID: sitter.ID,
		StartDate:   start.Add(24 * time.Hour),
		EndDate:     start.Add(32 * time.Hour),
	}))
	got, err = repos.PetSitters.GetByID(ctx, sitter.ID)
	require.NoError(t, err)
	assert.Len(t, got.Availability, 2)

	require.NoError(t, repos.PetSitters.Delete(ctx, sitter.ID))

	_, err = repos.PetSitters.GetByID(ctx, sitter.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	owner, err = repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, owner.PetSitterID)
	assert.ErrorIs(t, repos.PetSitters.Delete(ctx, sitter.ID), ErrNotFound)
}

func TestMemoryPetSitterList(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		u := seedUser(t, repos, email)
		require.NoError(t, repos.PetSitters.Create(ctx, &models.PetSitter{UserID: u.ID, Name: email, Location: "Oslo"}))
	}

	page, total, err := repos.PetSitters.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "b@x.io", page[0].Name)

	page, _, err = repos.PetSitters.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryBookings(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	u := seedUser(t, repos, "owner@example.com")
	sitter := &models.PetSitter{UserID: u.ID, Name: "Kim", Location: "Rome"}
	require.NoError(t, repos.PetSitters.Create(ctx, sitter))

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Bookings.Create(ctx, &models.Booking{UserID: 42, PetSitterID: sitter.ID, StartDate: start.Add(48 * time.Hour), EndDate: start.Add(72 * time.Hour)}))
	require.NoError(t, repos.Bookings.Create(ctx, &models.Booking{UserID: 42, PetSitterID: sitter.ID, StartDate: start, EndDate: start.Add(24 * time.Hour)}))
	assert.ErrorIs(t, repos.Bookings.Create(ctx, &models.Booking{UserID: 42, PetSitterID: 999}), ErrNotFound)

	list, err := repos.Bookings.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].StartDate.Equal(start))

	list, err = repos.Bookings.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, list)
}
