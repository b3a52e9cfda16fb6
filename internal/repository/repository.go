package repository

import (
	"context"
	"errors"

	"petstop/backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// PetSitterRepository persists pet sitter listings and their availability.
// Create and Delete keep users.pet_sitter_id in step with the listing.
type PetSitterRepository interface {
	Create(ctx context.Context, sitter *models.PetSitter) error
	GetByID(ctx context.Context, id uint) (*models.PetSitter, error)
	GetByUserID(ctx context.Context, userID uint) (*models.PetSitter, error)
	List(ctx context.Context, offset, limit int) ([]models.PetSitter, int64, error)
	Update(ctx context.Context, sitter *models.PetSitter) error
	Delete(ctx context.Context, id uint) error
	AddAvailability(ctx context.Context, availability *models.Availability) error
}

// BookingRepository persists bookings
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	ListByUser(ctx context.Context, userID uint) ([]models.Booking, error)
}

// Repositories bundles every repository the services need
type Repositories struct {
	Users      UserRepository
	PetSitters PetSitterRepository
	Bookings   BookingRepository
}
