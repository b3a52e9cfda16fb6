package service

import (
	"context"
	"testing"
	"time"

	"petstop/backend/internal/models"
	"petstop/backend/internal/repository"
	"petstop/backend/pkg/cache"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sitterFixture struct {
	svc   *PetSitterService
	repos repository.Repositories
	cache *cache.MemoryCache
	owner uint
	other uint
}

func newSitterFixture(t *testing.T) sitterFixture {
	t.Helper()
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	mc := cache.NewMemoryCache(100)

	owner := &models.User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	other := &models.User{Name: "Other", Email: "other@example.com", Password: "x"}
	require.NoError(t, repos.Users.Create(ctx, owner))
	require.NoError(t, repos.Users.Create(ctx, other))

	return sitterFixture{
		svc:   NewPetSitterService(repos.PetSitters, mc, time.Minute, logger.Discard()),
		repos: repos,
		cache: mc,
		owner: owner.ID,
		other: other.ID,
	}
}

func (f sitterFixture) create(t *testing.T) *models.PetSitterResponse {
	t.Helper()
	rate := 15.0
	resp, err := f.svc.Create(context.Background(), f.owner, &models.CreatePetSitterRequest{
		Name:         "Kim",
		HourlyRate:   &rate,
		ServiceTypes: []string{"walking"},
		Location:     "Berlin",
	})
	require.NoError(t, err)
	return resp
}

func TestPetSitterCreate(t *testing.T) {
	f := newSitterFixture(t)
	resp := f.create(t)

	require.NotNil(t, resp.User)
	assert.Equal(t, "owner@example.com", resp.User.Email)
	assert.Equal(t, 15.0, resp.HourlyRate)

	_, err := f.svc.Create(context.Background(), f.owner, &models.CreatePetSitterRequest{Name: "Kim", Location: "Berlin"})
	assert.ErrorIs(t, err, ErrAlreadyPetSitter)
}

func TestPetSitterCreateRejectsInvertedAvailability(t *testing.T) {
	f := newSitterFixture(t)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.Create(context.Background(), f.owner, &models.CreatePetSitterRequest{
		Name:         "Kim",
		Location:     "Berlin",
		Availability: []models.DateRange{{StartDate: start, EndDate: start.Add(-time.Hour)}},
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestPetSitterGetUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	resp := f.create(t)

	assert.Equal(t, 1, f.cache.Count())

	_, ok := f.cache.Get(ctx, cacheKey(resp.ID))
	assert.True(t, ok)

	_, err := f.svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrPetSitterNotFound)
}

func TestProfileUpdateRefreshesCachedListing(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	created := f.create(t)

	tokens, err := jwt.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	users := NewUserService(f.repos.Users, tokens, f.svc, logger.Discard())

	before, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, before.User)
	assert.Equal(t, "owner@example.com", before.User.Email)

	email := "moved@example.com"
	_, err = users.UpdateProfile(ctx, f.owner, &models.UpdateUserRequest{Email: &email})
	require.NoError(t, err)

	after, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, after.User)
	assert.Equal(t, "moved@example.com", after.User.Email)

	// users without a listing are a no-op
	name := "Other Person"
	_, err = users.UpdateProfile(ctx, f.other, &models.UpdateUserRequest{Name: &name})
	assert.NoError(t, err)
}

func TestPetSitterUpdate(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	resp := f.create(t)

	_, err := f.svc.Update(ctx, f.owner, resp.ID, &models.UpdatePetSitterRequest{})
	assert.ErrorIs(t, err, ErrNoUpdateFields)

	loc := "Hamburg"
	_, err = f.svc.Update(ctx, f.other, resp.ID, &models.UpdatePetSitterRequest{Location: &loc})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := f.svc.Update(ctx, f.owner, resp.ID, &models.UpdatePetSitterRequest{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", updated.Location)

	got, err := f.svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", got.Location)
}

func TestPetSitterAvailability(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	resp := f.create(t)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.AddAvailability(ctx, f.owner, resp.ID, models.DateRange{StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = f.svc.AddAvailability(ctx, f.other, resp.ID, models.DateRange{StartDate: start, EndDate: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotOwner)

	a, err := f.svc.AddAvailability(ctx, f.owner, resp.ID, models.DateRange{StartDate: start, EndDate: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, a.PetSitterID)

	got, err := f.svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Availability, 1)
}

func TestPetSitterDelete(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	resp := f.create(t)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.other, resp.ID), ErrNotOwner)
	require.NoError(t, f.svc.Delete(ctx, f.owner, resp.ID))

	_, err := f.svc.Get(ctx, resp.ID)
	assert.ErrorIs(t, err, ErrPetSitterNotFound)

	owner, err := f.repos.Users.GetByID(ctx, f.owner)
	require.NoError(t, err)
	assert.Nil(t, owner.PetSitterID)
}

func TestPetSitterListPagination(t *testing.T) {
	ctx := context.Background()
	f := newSitterFixture(t)
	f.create(t)

	page, err := f.svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.EqualValues(t, 1, page.Total)
	assert.Len(t, page.PetSitters, 1)

	page, err = f.svc.List(ctx, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Empty(t, page.PetSitters)
}
