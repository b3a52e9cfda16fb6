package repository

import (
	"context"
	"errors"

	"petstop/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormRepositories returns PostgreSQL-backed repositories
func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:      NewGormUserRepository(db),
		PetSitters: NewGormPetSitterRepository(db),
		Bookings:   NewGormBookingRepository(db),
	}
}

// AutoMigrate creates or updates the schema for every model
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

type GormPetSitterRepository struct {
	db *gorm.DB
}

func NewGormPetSitterRepository(db *gorm.DB) *GormPetSitterRepository {
	return &GormPetSitterRepository{db: db}
}

func (r *GormPetSitterRepository) Create(ctx context.Context, sitter *models.PetSitter) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(sitter).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", sitter.UserID).
			Update("pet_sitter_id", sitter.ID).Error
	}))
}

func (r *GormPetSitterRepository) GetByID(ctx context.Context, id uint) (*models.PetSitter, error) {
	var sitter models.PetSitter
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Availability").
		First(&sitter, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sitter, nil
}

func (r *GormPetSitterRepository) GetByUserID(ctx context.Context, userID uint) (*models.PetSitter, error) {
	var sitter models.PetSitter
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sitter).Error; err != nil {
		return nil, translate(err)
	}
	return &sitter, nil
}

func (r *GormPetSitterRepository) List(ctx context.Context, offset, limit int) ([]models.PetSitter, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.PetSitter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sitters []models.PetSitter
	err := db.Preload("User").
		Preload("Availability").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&sitters).Error
	if err != nil {
		return nil, 0, err
	}
	return sitters, total, nil
}

func (r *GormPetSitterRepository) Update(ctx context.Context, sitter *models.PetSitter) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(sitter).Error)
}

func (r *GormPetSitterRepository) Delete(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pet_sitter_id = ?", id).Delete(&models.Availability{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("pet_sitter_id = ?", id).
			Update("pet_sitter_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.PetSitter{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (r *GormPetSitterRepository) AddAvailability(ctx context.Context, availability *models.Availability) error {
	return translate(r.db.WithContext(ctx).Create(availability).Error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return translate(r.db.WithContext(ctx).Create(booking).Error)
}

func (r *GormBookingRepository) ListByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
