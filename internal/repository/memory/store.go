// Package memory is a process-local implementation of the repository contracts. It backs
// the server when no database is configured and gives tests a real store to run against.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"radar/internal/domain"
	"radar/internal/models"
	"radar/internal/repository"

	"github.com/google/uuid"
)

// Store keeps users, locations and privacy settings in maps guarded by one lock.
// Values are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	emails    map[string]string
	locations map[string]models.UserLocation
	privacy   map[string]models.PrivacySettings
	nextID    uint
	failure   error
}

func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		locations: make(map[string]models.UserLocation),
		privacy:   make(map[string]models.PrivacySettings),
	}
}

// SetFailure makes every subsequent call fail with a storage error wrapping err.
// Passing nil restores normal operation.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) fail() error {
	if s.failure != nil {
		return domain.StorageError(s.failure)
	}
	return nil
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() *Users         { return &Users{s} }
func (s *Store) Locations() *Locations { return &Locations{s} }
func (s *Store) Privacy() *Privacy     { return &Privacy{s} }
func (s *Store) Nearby() *Nearby       { return &Nearby{s} }

// hydrate attaches copies of the user's location and settings. Caller holds the lock.
func (s *Store) hydrate(u models.User) models.User {
	u.Location, u.Privacy = nil, nil
	if loc, ok := s.locations[u.ID]; ok {
		u.Location = &loc
	}
	if p, ok := s.privacy[u.ID]; ok {
		u.Privacy = &p
	}
	return u
}

type Users struct{ s *Store }

func (r *Users) CreateWithPrivacy(_ context.Context, u *models.User, p *models.PrivacySettings) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	email := strings.ToLower(u.Email)
	if _, taken := s.emails[email]; taken {
		return domain.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, taken := s.users[u.ID]; taken {
		return domain.ErrConflict
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.Location, stored.Privacy = nil, nil
	s.users[u.ID] = stored
	s.emails[email] = u.ID

	p.UserID = u.ID
	p.ID = s.id()
	p.CreatedAt, p.UpdatedAt = now, now
	s.privacy[u.ID] = *p
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u = s.hydrate(u)
	return &u, nil
}

func (r *Users) UpdateAvatar(_ context.Context, id, avatar string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	u, ok := s.users[id]
	if !ok {
		return domain.NotFound("user")
	}
	u.Avatar = avatar
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

type Locations struct{ s *Store }

func (r *Locations) Upsert(_ context.Context, loc *models.UserLocation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.users[loc.UserID]; !ok {
		return domain.NotFound("user")
	}
	now := time.Now().UTC()
	stored, exists := s.locations[loc.UserID]
	if !exists {
		stored = models.UserLocation{ID: s.id(), UserID: loc.UserID, CreatedAt: now}
	}
	stored.Latitude = loc.Latitude
	stored.Longitude = loc.Longitude
	stored.Accuracy = nil
	if loc.Accuracy != nil {
		a := *loc.Accuracy
		stored.Accuracy = &a
	}
	stored.IsActive = loc.IsActive
	stored.LastSeen = loc.LastSeen
	stored.UpdatedAt = now
	s.locations[loc.UserID] = stored
	loc.ID = stored.ID
	return nil
}

func (r *Locations) GetByUserID(_ context.Context, userID string) (*models.UserLocation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	loc, ok := s.locations[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u, ok := s.users[userID]; ok {
		u.Location, u.Privacy = nil, nil
		loc.User = &u
	}
	return &loc, nil
}

// Count reports how many location rows exist for userID (zero or one).
func (r *Locations) Count(userID string) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.locations[userID]; ok {
		return 1
	}
	return 0
}

type Privacy struct{ s *Store }

func (r *Privacy) GetByUserID(_ context.Context, userID string) (*models.PrivacySettings, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	p, ok := s.privacy[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *Privacy) Create(_ context.Context, p *models.PrivacySettings) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.users[p.UserID]; !ok {
		return domain.NotFound("user")
	}
	if _, ok := s.privacy[p.UserID]; ok {
		return domain.ErrConflict
	}
	now := time.Now().UTC()
	p.ID = s.id()
	p.CreatedAt, p.UpdatedAt = now, now
	s.privacy[p.UserID] = *p
	return nil
}

func (r *Privacy) Save(_ context.Context, p *models.PrivacySettings) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.users[p.UserID]; !ok {
		return domain.NotFound("user")
	}
	now := time.Now().UTC()
	if p.ID == 0 {
		p.ID = s.id()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.privacy[p.UserID] = *p
	return nil
}

// DeleteForUser drops a user's settings, leaving the user without any.
func (r *Privacy) DeleteForUser(userID string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.privacy, userID)
}

type Nearby struct{ s *Store }

// Candidates applies the same static predicates as the SQL repository.
func (r *Nearby) Candidates(_ context.Context, f repository.CandidateFilter) ([]models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		f.Limit = domain.DefaultCandidateCap
	}
	var out []models.User
	for id, u := range s.users {
		if id == f.ExcludeUserID {
			continue
		}
		loc, ok := s.locations[id]
		if !ok || !loc.IsActive || loc.LastSeen.Before(f.SeenAfter) {
			continue
		}
		if p, ok := s.privacy[id]; ok && (!p.AllowNearbySearch || p.Visibility == domain.VisibilityPrivate) {
			continue
		}
		if !f.Box.Contains(loc.Latitude, loc.Longitude) {
			continue
		}
		out = append(out, s.hydrate(u))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Location.LastSeen, out[j].Location.LastSeen
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
