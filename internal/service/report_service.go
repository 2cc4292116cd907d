package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

type ReportStore interface {
	Daily(ctx context.Context, filter model.ReportFilter) ([]model.ReportRow, error)
}

type ReportService struct {
	store    ReportStore
	location *time.Location
}

func NewReportService(store ReportStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, location: loc}
}

// DailyReport lists presensi matching every supplied filter. Dates select
// whole calendar days in the display time zone.
func (s *ReportService) DailyReport(ctx context.Context, q model.ReportQuery) (model.DailyReport, error) {
	filter, label, err := s.BuildFilter(q)
	if err != nil {
		return model.DailyReport{}, err
	}

	rows, err := s.store.Daily(ctx, filter)
	if err != nil {
		return model.DailyReport{}, err
	}

	records := make([]model.ReportRowView, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.ReportRowView{
			PresensiView: model.NewPresensiView(row.Presensi, s.location),
			User:         model.ReportUser{Email: row.Email, Name: row.Name},
		})
	}

	return model.DailyReport{
		ReportDate: label,
		Total:      len(records),
		Records:    records,
	}, nil
}

// BuildFilter turns query parameters into a storage filter and a label
// describing the selected date range.
func (s *ReportService) BuildFilter(q model.ReportQuery) (model.ReportFilter, string, error) {
	filter := model.ReportFilter{
		Email: strings.TrimSpace(q.Email),
		Name:  strings.TrimSpace(q.Name),
	}

	mulai := strings.TrimSpace(q.TanggalMulai)
	selesai := strings.TrimSpace(q.TanggalSelesai)

	if mulai == "" {
		if selesai != "" {
			return model.ReportFilter{}, "", apierror.Validation("tanggalSelesai requires tanggalMulai", "")
		}
		return filter, "", nil
	}

	fromDay, err := ParseReportDate(mulai, s.location)
	if err != nil {
		return model.ReportFilter{}, "", apierror.Validation("tanggalMulai must be YYYY-MM-DD or RFC 3339", err.Error())
	}

	toDay := fromDay
	if selesai != "" {
		toDay, err = ParseReportDate(selesai, s.location)
		if err != nil {
			return model.ReportFilter{}, "", apierror.Validation("tanggalSelesai must be YYYY-MM-DD or RFC 3339", err.Error())
		}
		if toDay.Before(fromDay) {
			return model.ReportFilter{}, "", apierror.Validation("tanggalSelesai must not be before tanggalMulai", "")
		}
	}

	from := fromDay
	to := toDay.AddDate(0, 0, 1)
	filter.From = &from
	filter.To = &to

	label := fromDay.Format(time.DateOnly)
	if !toDay.Equal(fromDay) {
		label += "/" + toDay.Format(time.DateOnly)
	}
	return filter, label, nil
}

// ParseReportDate returns midnight, in loc, of the calendar day named by
// raw. An RFC 3339 value selects the day it falls on in loc.
func ParseReportDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q", raw)
	}

	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}
