package models

import "time"

// PetSitter is a user's public sitter listing. A user has at most one.
type PetSitter struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"userId"`
	User         *User          `gorm:"foreignKey:UserID" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Bio          string         `json:"bio"`
	Experience   int            `json:"experience"`
	HourlyRate   float64        `json:"hourlyRate"`
	ServiceTypes []string       `gorm:"serializer:json" json:"serviceTypes"`
	Location     string         `gorm:"not null" json:"location"`
	Availability []Availability `gorm:"foreignKey:PetSitterID;constraint:OnDelete:CASCADE" json:"availability"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Availability is a time range a pet sitter can take bookings
type Availability struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PetSitterID uint      `gorm:"index;not null" json:"petSitterId"`
	StartDate   time.Time `gorm:"not null" json:"startDate"`
	EndDate     time.Time `gorm:"not null" json:"endDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName keeps the table name stable
func (Availability) TableName() string {
	return "pet_sitter_availabilities"
}

// DateRange is a start/end pair in RFC 3339
type DateRange struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// Valid reports whether the range ends after it starts
func (r DateRange) Valid() bool {
	return r.EndDate.After(r.StartDate)
}

// CreatePetSitterRequest creates the caller's listing
type CreatePetSitterRequest struct {
	Name         string      `json:"name" binding:"required,min=2,max=50"`
	Bio          *string     `json:"bio" binding:"omitempty,min=10,max=500"`
	Experience   *int        `json:"experience" binding:"omitempty,min=0"`
	HourlyRate   *float64    `json:"hourlyRate" binding:"omitempty,min=0"`
	ServiceTypes []string    `json:"serviceTypes"`
	Availability []DateRange `json:"availability" binding:"omitempty,dive"`
	Location     string      `json:"location" binding:"required,min=2"`
}

// UpdatePetSitterRequest is a partial update; at least one field is required
type UpdatePetSitterRequest struct {
	Name         *string   `json:"name" binding:"omitempty,min=2,max=50"`
	Bio          *string   `json:"bio" binding:"omitempty,min=10,max=500"`
	Experience   *int      `json:"experience" binding:"omitempty,min=0"`
	HourlyRate   *float64  `json:"hourlyRate" binding:"omitempty,min=0"`
	ServiceTypes *[]string `json:"serviceTypes"`
	Location     *string   `json:"location" binding:"omitempty,min=2"`
}

// Empty reports whether no field was provided
func (r UpdatePetSitterRequest) Empty() bool {
	return r.Name == nil && r.Bio == nil && r.Experience == nil &&
		r.HourlyRate == nil && r.ServiceTypes == nil && r.Location == nil
}

// Apply copies the provided fields onto p
func (r UpdatePetSitterRequest) Apply(p *PetSitter) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
	}
	if r.Experience != nil {
		p.Experience = *r.Experience
	}
	if r.HourlyRate != nil {
		p.HourlyRate = *r.HourlyRate
	}
	if r.ServiceTypes != nil {
		p.ServiceTypes = *r.ServiceTypes
	}
	if r.Location != nil {
		p.Location = *r.Location
	}
}

// PetSitterResponse is a listing with its owner and availability
type PetSitterResponse struct {
	ID           uint           `json:"id"`
	UserID       uint           `json:"userId"`
	User         *UserSummary   `json:"user,omitempty"`
	Name         string         `json:"name"`
	Bio          string         `json:"bio"`
	Experience   int            `json:"experience"`
	HourlyRate   float64        `json:"hourlyRate"`
	ServiceTypes []string       `json:"serviceTypes"`
	Location     string         `json:"location"`
	Availability []Availability `json:"availability"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ToResponse converts a PetSitter model to a PetSitterResponse
func (p *PetSitter) ToResponse() PetSitterResponse {
	resp := PetSitterResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		Bio:          p.Bio,
		Experience:   p.Experience,
		HourlyRate:   p.HourlyRate,
		ServiceTypes: p.ServiceTypes,
		Location:     p.Location,
		Availability: p.Availability,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if resp.ServiceTypes == nil {
		resp.ServiceTypes = []string{}
	}
	if resp.Availability == nil {
		resp.Availability = []Availability{}
	}
	if p.User != nil {
		s := p.User.Summary()
		resp.User = &s
	}
	return resp
}

// PetSitterListResponse is one page of listings
type PetSitterListResponse struct {
	PetSitters []PetSitterResponse `json:"petSitters"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Total      int64               `json:"total"`
}
