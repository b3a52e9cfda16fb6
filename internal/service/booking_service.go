package service

import (
	"context"
	"errors"

	"petstop/backend/internal/models"
	"petstop/backend/internal/repository"
	"petstop/backend/pkg/logger"
)

// BookingService records bookings of pet sitters
type BookingService struct {
	bookings repository.BookingRepository
	sitters  repository.PetSitterRepository
	logger   *logger.Logger
}

// NewBookingService creates a booking service
func NewBookingService(bookings repository.BookingRepository, sitters repository.PetSitterRepository, log *logger.Logger) *BookingService {
	return &BookingService{bookings: bookings, sitters: sitters, logger: log}
}

// Create books a pet sitter for userID
func (s *BookingService) Create(ctx context.Context, userID uint, req *models.CreateBookingRequest) (*models.Booking, error) {
	r := models.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}
	if !r.Valid() {
		return nil, ErrInvalidDateRange
	}

	if _, err := s.sitters.GetByID(ctx, req.PetSitterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPetSitterNotFound
		}
		return nil, err
	}

	booking := models.Booking{
		UserID:      userID,
		PetSitterID: req.PetSitterID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.bookings.Create(ctx, &booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPetSitterNotFound
		}
		return nil, err
	}

	s.logger.Info("Booking created", "booking_id", booking.ID, "pet_sitter_id", booking.PetSitterID, "user_id", userID)
	return &booking, nil
}

// List returns the bookings made by userID
func (s *BookingService) List(ctx context.Context, userID uint) ([]models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}
