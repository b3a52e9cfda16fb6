package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"petstop/backend/internal/models"
)

// memoryDB is the shared state behind the in-memory repositories.
// One mutex guards every table so cross-table updates stay consistent.
type memoryDB struct {
	mu           sync.RWMutex
	users        map[uint]models.User
	sitters      map[uint]models.PetSitter
	availability map[uint]models.Availability
	bookings     map[uint]models.Booking
	lastID       uint
}

func (db *memoryDB) nextID() uint {
	db.lastID++
	return db.lastID
}

// NewMemoryRepositories returns repositories backed by process memory.
// Used for DB_DRIVER=memory and in tests.
func NewMemoryRepositories() Repositories {
	db := &memoryDB{
		users:        make(map[uint]models.User),
		sitters:      make(map[uint]models.PetSitter),
		availability: make(map[uint]models.Availability),
		bookings:     make(map[uint]models.Booking),
	}
	return Repositories{
		Users:      &memoryUserRepository{db: db},
		PetSitters: &memoryPetSitterRepository{db: db},
		Bookings:   &memoryBookingRepository{db: db},
	}
}

type memoryUserRepository struct {
	db *memoryDB
}

func (r *memoryUserRepository) emailTaken(email string, except uint) bool {
	for id, u := range r.db.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return ErrDuplicate
	}
	now := time.Now()
	user.ID = r.db.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicate
	}
	user.UpdatedAt = time.Now()
	r.db.users[user.ID] = *user
	return nil
}

type memoryPetSitterRepository struct {
	db *memoryDB
}

// load fills the associations the gorm repository preloads. Callers hold the lock.
func (r *memoryPetSitterRepository) load(s models.PetSitter) models.PetSitter {
	if u, ok := r.db.users[s.UserID]; ok {
		s.User = &u
	}
	s.Availability = nil
	for _, a := range r.db.availability {
		if a.PetSitterID == s.ID {
			s.Availability = append(s.Availability, a)
		}
	}
	sort.Slice(s.Availability, func(i, j int) bool {
		return s.Availability[i].ID < s.Availability[j].ID
	})
	return s
}

func (r *memoryPetSitterRepository) Create(_ context.Context, sitter *models.PetSitter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.db.users[sitter.UserID]
	if !ok {
		return ErrNotFound
	}
	for _, s := range r.db.sitters {
		if s.UserID == sitter.UserID {
			return ErrDuplicate
		}
	}

	now := time.Now()
	sitter.ID = r.db.nextID()
	sitter.CreatedAt = now
	sitter.UpdatedAt = now
	for i := range sitter.Availability {
		a := &sitter.Availability[i]
		a.ID = r.db.nextID()
		a.PetSitterID = sitter.ID
		a.CreatedAt = now
		r.db.availability[a.ID] = *a
	}

	stored := *sitter
	stored.User = nil
	stored.Availability = nil
	r.db.sitters[sitter.ID] = stored

	id := sitter.ID
	user.PetSitterID = &id
	r.db.users[user.ID] = user
	return nil
}

func (r *memoryPetSitterRepository) GetByID(_ context.Context, id uint) (*models.PetSitter, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sitters[id]
	if !ok {
		return nil, ErrNotFound
	}
	s = r.load(s)
	return &s, nil
}

func (r *memoryPetSitterRepository) GetByUserID(_ context.Context, userID uint) (*models.PetSitter, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.sitters {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryPetSitterRepository) List(_ context.Context, offset, limit int) ([]models.PetSitter, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := make([]uint, 0, len(r.db.sitters))
	for id := range r.db.sitters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := int64(len(ids))
	if offset >= len(ids) {
		return []models.PetSitter{}, total, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	sitters := make([]models.PetSitter, 0, len(ids))
	for _, id := range ids {
		sitters = append(sitters, r.load(r.db.sitters[id]))
	}
	return sitters, total, nil
}

func (r *memoryPetSitterRepository) Update(_ context.Context, sitter *models.PetSitter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sitters[sitter.ID]; !ok {
		return ErrNotFound
	}
	sitter.UpdatedAt = time.Now()
	stored := *sitter
	stored.User = nil
	stored.Availability = nil
	r.db.sitters[sitter.ID] = stored
	return nil
}

func (r *memoryPetSitterRepository) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sitters[id]; !ok {
		return ErrNotFound
	}
	for aid, a := range r.db.availability {
		if a.PetSitterID == id {
			delete(r.db.availability, aid)
		}
	}
	for uid, u := range r.db.users {
		if u.PetSitterID != nil && *u.PetSitterID == id {
			u.PetSitterID = nil
			r.db.users[uid] = u
		}
	}
	delete(r.db.sitters, id)
	return nil
}

func (r *memoryPetSitterRepository) AddAvailability(_ context.Context, availability *models.Availability) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sitters[availability.PetSitterID]; !ok {
		return ErrNotFound
	}
	availability.ID = r.db.nextID()
	availability.CreatedAt = time.Now()
	r.db.availability[availability.ID] = *availability
	return nil
}

type memoryBookingRepository struct {
	db *memoryDB
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *models.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sitters[booking.PetSitterID]; !ok {
		return ErrNotFound
	}
	booking.ID = r.db.nextID()
	booking.CreatedAt = time.Now()
	r.db.bookings[booking.ID] = *booking
	return nil
}

func (r *memoryBookingRepository) ListByUser(_ context.Context, userID uint) ([]models.Booking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	bookings := []models.Booking{}
	for _, b := range r.db.bookings {
		if b.UserID == userID {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartDate.Before(bookings[j].StartDate)
	})
	return bookings, nil
}
