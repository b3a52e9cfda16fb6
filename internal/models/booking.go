package models

import "time"

// Booking reserves a pet sitter for a time range
type Booking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	PetSitterID uint      `gorm:"index;not null" json:"petSitterId"`
	StartDate   time.Time `gorm:"not null" json:"startDate"`
	EndDate     time.Time `gorm:"not null" json:"endDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateBookingRequest books a pet sitter for the caller
type CreateBookingRequest struct {
	PetSitterID uint      `json:"petSitterId" binding:"required,min=1"`
	StartDate   time.Time `json:"startDate" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required"`
}

// All returns every model managed by migrations
func All() []interface{} {
	return []interface{}{&User{}, &PetSitter{}, &Availability{}, &Booking{}}
}
