package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

func reportRow(id string, email string, name string, checkIn time.Time) model.ReportRow {
	return model.ReportRow{
		Presensi: model.Presensi{ID: id, UserID: "u-" + id, CheckIn: checkIn, CreatedAt: checkIn, UpdatedAt: checkIn},
		Email:    email,
		Name:     name,
	}
}

func TestDailyReport(t *testing.T) {
	ctx := context.Background()
	store := &fakeReportStore{rows: []model.ReportRow{
		// 2023-12-31 23:30 in UTC+7
		reportRow("a", "ana@x.com", "Ana", time.Date(2023, 12, 31, 16, 30, 0, 0, time.UTC)),
		// 2024-01-01 00:00 in UTC+7
		reportRow("b", "budi@x.com", "Budi", time.Date(2023, 12, 31, 17, 0, 0, 0, time.UTC)),
		// 2024-01-01 23:59 in UTC+7
		reportRow("c", "ana@x.com", "Ana", time.Date(2024, 1, 1, 16, 59, 0, 0, time.UTC)),
		// 2024-01-02 00:00 in UTC+7
		reportRow("d", "citra@x.com", "Citra", time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)),
	}}
	svc := NewReportService(store, jakarta)

	ids := func(r model.DailyReport) []string {
		out := make([]string, 0, len(r.Records))
		for _, rec := range r.Records {
			out = append(out, rec.ID)
		}
		return out
	}

	t.Run("no filters returns everything", func(t *testing.T) {
		report, err := svc.DailyReport(ctx, model.ReportQuery{})
		require.NoError(t, err)
		assert.Equal(t, 4, report.Total)
		assert.Empty(t, report.ReportDate)
	})

	t.Run("single calendar day in display zone", func(t *testing.T) {
		report, err := svc.DailyReport(ctx, model.ReportQuery{TanggalMulai: "2024-01-01", TanggalSelesai: "2024-01-01"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"b", "c"}, ids(report))
		assert.Equal(t, "2024-01-01", report.ReportDate)
		assert.Equal(t, "2024-01-01T00:00:00+07:00", report.Records[0].CheckIn)
	})

	t.Run("start only selects one day", func(t *testing.T) {
		report, err := svc.DailyReport(ctx, model.ReportQuery{TanggalMulai: "2024-01-02"})
		require.NoError(t, err)
		assert.Equal(t, []string{"d"}, ids(report))
	})

	t.Run("range with email filter", func(t *testing.T) {
		report, err := svc.DailyReport(ctx, model.ReportQuery{Email: "ANA", TanggalMulai: "2023-12-31", TanggalSelesai: "2024-01-02"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "c"}, ids(report))
		assert.Equal(t, "2023-12-31/2024-01-02", report.ReportDate)
		assert.Equal(t, "ana@x.com", report.Records[0].User.Email)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		report, err := svc.DailyReport(ctx, model.ReportQuery{Name: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, report.Records)
		assert.Zero(t, report.Total)
	})

	t.Run("window bounds", func(t *testing.T) {
		_, err := svc.DailyReport(ctx, model.ReportQuery{TanggalMulai: "2024-01-01T10:00:00Z"})
		require.NoError(t, err)
		require.NotNil(t, store.lastFilter.From)
		assert.Equal(t, time.Date(2023, 12, 31, 17, 0, 0, 0, time.UTC), store.lastFilter.From.UTC())
		assert.Equal(t, time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), store.lastFilter.To.UTC())
	})

	for name, q := range map[string]model.ReportQuery{
		"malformed start":   {TanggalMulai: "01-01-2024"},
		"out of range date": {TanggalMulai: "2024-02-30"},
		"malformed end":     {TanggalMulai: "2024-01-01", TanggalSelesai: "soon"},
		"end without start": {TanggalSelesai: "2024-01-01"},
		"end before start":  {TanggalMulai: "2024-01-02", TanggalSelesai: "2024-01-01"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.DailyReport(ctx, q)
			require.ErrorIs(t, err, apierror.Validation("", ""))
		})
	}
}
