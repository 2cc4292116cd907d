package model

import "time"

// Presensi is one check-in/check-out cycle. A nil CheckOut means the
// session is still open.
type Presensi struct {
	ID        string
	UserID    string
	CheckIn   time.Time
	CheckOut  *time.Time
	Latitude  *float64
	Longitude *float64
	Photo     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Presensi) IsOpen() bool {
	return p.CheckOut == nil
}

type Location struct {
	Latitude  float64
	Longitude float64
}

// PhotoUpload is an image received with a check-in, before normalization.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

type CheckInInput struct {
	Location *Location
	Photo    *PhotoUpload
}

// PresensiPatch holds the timestamps a correction overwrites. Nil fields
// are left untouched.
type PresensiPatch struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

func (p PresensiPatch) IsEmpty() bool {
	return p.CheckIn == nil && p.CheckOut == nil
}

type PresensiView struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	CheckIn   string   `json:"checkIn"`
	CheckOut  *string  `json:"checkOut"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Photo     *string  `json:"photo"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// NewPresensiView renders a record with all instants in loc.
func NewPresensiView(p Presensi, loc *time.Location) PresensiView {
	view := PresensiView{
		ID:        p.ID,
		UserID:    p.UserID,
		CheckIn:   FormatTime(p.CheckIn, loc),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Photo:     p.Photo,
		CreatedAt: FormatTime(p.CreatedAt, loc),
		UpdatedAt: FormatTime(p.UpdatedAt, loc),
	}
	if p.CheckOut != nil {
		out := FormatTime(*p.CheckOut, loc)
		view.CheckOut = &out
	}
	return view
}

func NewPresensiViews(records []Presensi, loc *time.Location) []PresensiView {
	views := make([]PresensiView, 0, len(records))
	for _, record := range records {
		views = append(views, NewPresensiView(record, loc))
	}
	return views
}

// FormatTime renders t as RFC 3339 in loc, e.g. 2024-01-01T08:00:00+07:00.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339)
}
