package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"petstop/backend/internal/models"
	"petstop/backend/internal/repository"
	"petstop/backend/pkg/cache"
	"petstop/backend/pkg/logger"
)

var (
	ErrPetSitterNotFound = errors.New("pet sitter not found")
	ErrAlreadyPetSitter  = errors.New("user already has a pet sitter profile")
	ErrNotOwner          = errors.New("pet sitter belongs to another user")
	ErrInvalidDateRange  = errors.New("endDate must be after startDate")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PetSitterService manages pet sitter listings.
// Single listings are cached by ID and invalidated on every write.
type PetSitterService struct {
	sitters  repository.PetSitterRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewPetSitterService creates a pet sitter service; a nil cache disables caching
func NewPetSitterService(sitters repository.PetSitterRepository, c cache.Cache, ttl time.Duration, log *logger.Logger) *PetSitterService {
	return &PetSitterService{
		sitters:  sitters,
		cache:    c,
		cacheTTL: ttl,
		logger:   log,
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("petsitter:%d", id)
}

// Create creates the caller's listing. A user may own at most one.
func (s *PetSitterService) Create(ctx context.Context, userID uint, req *models.CreatePetSitterRequest) (*models.PetSitterResponse, error) {
	if _, err := s.sitters.GetByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyPetSitter
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	sitter := models.PetSitter{
		UserID:       userID,
		Name:         req.Name,
		ServiceTypes: req.ServiceTypes,
		Location:     req.Location,
	}
	if req.Bio != nil {
		sitter.Bio = *req.Bio
	}
	if req.Experience != nil {
		sitter.Experience = *req.Experience
	}
	if req.HourlyRate != nil {
		sitter.HourlyRate = *req.HourlyRate
	}
	for _, r := range req.Availability {
		if !r.Valid() {
			return nil, ErrInvalidDateRange
		}
		sitter.Availability = append(sitter.Availability, models.Availability{
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		})
	}

	if err := s.sitters.Create(ctx, &sitter); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyPetSitter
		}
		return nil, err
	}

	s.logger.Info("Pet sitter created", "pet_sitter_id", sitter.ID, "user_id", userID)
	return s.Get(ctx, sitter.ID)
}

// List returns one page of listings. page starts at 1.
func (s *PetSitterService) List(ctx context.Context, page, limit int) (*models.PetSitterListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	sitters, total, err := s.sitters.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	resp := &models.PetSitterListResponse{
		PetSitters: make([]models.PetSitterResponse, 0, len(sitters)),
		Page:       page,
		Limit:      limit,
		Total:      total,
	}
	for i := range sitters {
		resp.PetSitters = append(resp.PetSitters, sitters[i].ToResponse())
	}
	return resp, nil
}

// Get returns one listing with its owner and availability
func (s *PetSitterService) Get(ctx context.Context, id uint) (*models.PetSitterResponse, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey(id)); ok {
			var cached models.PetSitterResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			s.cache.Delete(ctx, cacheKey(id))
		}
	}

	sitter, err := s.sitters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPetSitterNotFound
		}
		return nil, err
	}

	resp := sitter.ToResponse()
	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			s.cache.Set(ctx, cacheKey(id), raw, s.cacheTTL)
		}
	}
	return &resp, nil
}

// owned loads a listing and checks that userID owns it
func (s *PetSitterService) owned(ctx context.Context, userID, id uint) (*models.PetSitter, error) {
	sitter, err := s.sitters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPetSitterNotFound
		}
		return nil, err
	}
	if sitter.UserID != userID {
		s.logger.Warn("Pet sitter write by non-owner", "pet_sitter_id", id, "user_id", userID)
		return nil, ErrNotOwner
	}
	return sitter, nil
}

func (s *PetSitterService) invalidate(ctx context.Context, id uint) {
	if s.cache != nil {
		s.cache.Delete(ctx, cacheKey(id))
	}
}

// InvalidateOwner drops the cached listing of userID, if any.
// Listings embed the owner's name and email, so profile changes must call it.
func (s *PetSitterService) InvalidateOwner(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	sitter, err := s.sitters.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to look up listing for cache invalidation", "user_id", userID, "error", err.Error())
		}
		return
	}
	s.invalidate(ctx, sitter.ID)
}

// Update applies a partial update to a listing owned by userID
func (s *PetSitterService) Update(ctx context.Context, userID, id uint, req *models.UpdatePetSitterRequest) (*models.PetSitterResponse, error) {
	if req.Empty() {
		return nil, ErrNoUpdateFields
	}

	sitter, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(sitter)
	if err := s.sitters.Update(ctx, sitter); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return s.Get(ctx, id)
}

// Delete removes a listing owned by userID together with its availability
func (s *PetSitterService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.sitters.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPetSitterNotFound
		}
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Pet sitter deleted", "pet_sitter_id", id, "user_id", userID)
	return nil
}

// AddAvailability adds a time range to a listing owned by userID
func (s *PetSitterService) AddAvailability(ctx context.Context, userID, id uint, r models.DateRange) (*models.Availability, error) {
	if !r.Valid() {
		return nil, ErrInvalidDateRange
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	availability := models.Availability{
		PetSitterID: id,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
	if err := s.sitters.AddAvailability(ctx, &availability); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return &availability, nil
}
