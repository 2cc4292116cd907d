package router_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-presensi/internal/model"
)

// memStore backs users, presensi and reports in memory. Open sessions are
// unique per user, checked and inserted under one lock.
type memStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	presensi map[string]model.Presensi
}

func newMemStore() *memStore {
	return &memStore{users: map[string]model.User{}, presensi: map[string]model.Presensi{}}
}

func (s *memStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[model.NormalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[model.NormalizeEmail(email)]
	return ok, nil
}

func (s *memStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.NormalizeEmail(u.Email)
	if _, ok := s.users[key]; ok {
		return model.ErrDuplicateEmail
	}
	s.users[key] = u
	return nil
}

type presensiStore struct{ *memStore }

func (s presensiStore) hasOpenLocked(userID string, except string) bool {
	for _, p := range s.presensi {
		if p.UserID == userID && p.IsOpen() && p.ID != except {
			return true
		}
	}
	return false
}

func (s presensiStore) CreateOpen(_ context.Context, p model.Presensi) (model.Presensi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasOpenLocked(p.UserID, "") {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	s.presensi[p.ID] = p
	return p, nil
}

func (s presensiStore) CloseOpen(_ context.Context, userID string, at time.Time) (model.Presensi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.presensi {
		if p.UserID == userID && p.IsOpen() {
			p.CheckOut = &at
			p.UpdatedAt = at
			s.presensi[id] = p
			return p, nil
		}
	}
	return model.Presensi{}, model.ErrNoOpenSession
}

func (s presensiStore) FindByID(_ context.Context, id string) (model.Presensi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presensi[id]
	if !ok {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	return p, nil
}

func (s presensiStore) ListByUser(_ context.Context, userID string, _ int) ([]model.Presensi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Presensi, 0)
	for _, p := range s.presensi {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	return out, nil
}

func (s presensiStore) UpdateTimes(_ context.Context, id string, checkIn time.Time, checkOut *time.Time, updatedAt time.Time) (model.Presensi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presensi[id]
	if !ok {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	if checkOut == nil && s.hasOpenLocked(p.UserID, id) {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	p.CheckIn = checkIn
	p.CheckOut = checkOut
	p.UpdatedAt = updatedAt
	s.presensi[id] = p
	return p, nil
}

func (s presensiStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presensi[id]; !ok {
		return model.ErrPresensiNotFound
	}
	delete(s.presensi, id)
	return nil
}

func (s *memStore) Daily(_ context.Context, filter model.ReportFilter) ([]model.ReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]model.User, len(s.users))
	for _, u := range s.users {
		byID[u.ID] = u
	}

	out := make([]model.ReportRow, 0)
	for _, p := range s.presensi {
		u := byID[p.UserID]
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.From != nil && p.CheckIn.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !p.CheckIn.Before(*filter.To) {
			continue
		}
		out = append(out, model.ReportRow{Presensi: p, Email: u.Email, Name: u.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}
