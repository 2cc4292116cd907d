package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-presensi/internal/model"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[model.NormalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[model.NormalizeEmail(email)]
	return ok, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.NormalizeEmail(u.Email)
	if _, ok := f.users[key]; ok {
		return model.ErrDuplicateEmail
	}
	f.users[key] = u
	return nil
}

// fakePresensiStore enforces one open record per user the way the partial
// unique index does: the check and the insert happen under one lock.
type fakePresensiStore struct {
	mu      sync.Mutex
	records map[string]model.Presensi
}

func newFakePresensiStore() *fakePresensiStore {
	return &fakePresensiStore{records: map[string]model.Presensi{}}
}

func (f *fakePresensiStore) hasOpenLocked(userID string, except string) bool {
	for _, r := range f.records {
		if r.UserID == userID && r.IsOpen() && r.ID != except {
			return true
		}
	}
	return false
}

func (f *fakePresensiStore) CreateOpen(_ context.Context, p model.Presensi) (model.Presensi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasOpenLocked(p.UserID, "") {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	f.records[p.ID] = p
	return p, nil
}

func (f *fakePresensiStore) CloseOpen(_ context.Context, userID string, at time.Time) (model.Presensi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.records {
		if r.UserID == userID && r.IsOpen() {
			r.CheckOut = &at
			r.UpdatedAt = at
			f.records[id] = r
			return r, nil
		}
	}
	return model.Presensi{}, model.ErrNoOpenSession
}

func (f *fakePresensiStore) FindByID(_ context.Context, id string) (model.Presensi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	return r, nil
}

func (f *fakePresensiStore) ListByUser(_ context.Context, userID string, _ int) ([]model.Presensi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Presensi, 0)
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	return out, nil
}

func (f *fakePresensiStore) UpdateTimes(_ context.Context, id string, checkIn time.Time, checkOut *time.Time, updatedAt time.Time) (model.Presensi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	if checkOut == nil && f.hasOpenLocked(r.UserID, id) {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	r.CheckIn = checkIn
	r.CheckOut = checkOut
	r.UpdatedAt = updatedAt
	f.records[id] = r
	return r, nil
}

func (f *fakePresensiStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return model.ErrPresensiNotFound
	}
	delete(f.records, id)
	return nil
}

// fakeReportStore applies a ReportFilter to in-memory rows.
type fakeReportStore struct {
	rows       []model.ReportRow
	lastFilter model.ReportFilter
}

func (f *fakeReportStore) Daily(_ context.Context, filter model.ReportFilter) ([]model.ReportRow, error) {
	f.lastFilter = filter
	out := make([]model.ReportRow, 0)
	for _, row := range f.rows {
		if filter.Email != "" && !strings.Contains(strings.ToLower(row.Email), strings.ToLower(filter.Email)) {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.From != nil && row.CheckIn.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !row.CheckIn.Before(*filter.To) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
