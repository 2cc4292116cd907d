package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"go-presensi/internal/model"
)

var presensiCols = []string{"id", "user_id", "check_in", "check_out", "latitude", "longitude", "photo", "created_at", "updated_at"}

func TestPresensiRepositoryCreateOpen(t *testing.T) {
	now := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	lat, lng := -6.2, 106.8
	record := model.Presensi{ID: "p-1", UserID: "u-1", CheckIn: now, Latitude: &lat, Longitude: &lng, CreatedAt: now, UpdatedAt: now}

	t.Run("inserts an open record", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectExec(`INSERT INTO presensi`).
			WithArgs("p-1", "u-1", now, lat, lng, nil, now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := repo.CreateOpen(context.Background(), record)
		require.NoError(t, err)
		require.True(t, got.IsOpen())
	})

	t.Run("open-session index violation becomes ErrAlreadyCheckedIn", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectExec(`INSERT INTO presensi`).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: constraintOneOpenPresensi})

		_, err := repo.CreateOpen(context.Background(), record)
		require.ErrorIs(t, err, model.ErrAlreadyCheckedIn)
	})

	t.Run("rejects closed records", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewPresensiRepository(db)

		closed := record
		closed.CheckOut = &now
		_, err := repo.CreateOpen(context.Background(), closed)
		require.Error(t, err)
	})
}

func TestPresensiRepositoryCloseOpen(t *testing.T) {
	checkIn := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(8 * time.Hour)

	t.Run("returns the closed record", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectQuery(`UPDATE presensi SET check_out = \$2, updated_at = \$2\s+WHERE user_id = \$1 AND check_out IS NULL`).
			WithArgs("u-1", checkOut).
			WillReturnRows(sqlmock.NewRows(presensiCols).
				AddRow("p-1", "u-1", checkIn, checkOut, nil, nil, "/uploads/p.jpg", checkIn, checkOut))

		got, err := repo.CloseOpen(context.Background(), "u-1", checkOut)
		require.NoError(t, err)
		require.False(t, got.IsOpen())
		require.Equal(t, checkOut, *got.CheckOut)
		require.Nil(t, got.Latitude)
		require.Equal(t, "/uploads/p.jpg", *got.Photo)
	})

	t.Run("no open row becomes ErrNoOpenSession", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectQuery(`UPDATE presensi SET check_out`).
			WithArgs("u-1", checkOut).
			WillReturnRows(sqlmock.NewRows(presensiCols))

		_, err := repo.CloseOpen(context.Background(), "u-1", checkOut)
		require.ErrorIs(t, err, model.ErrNoOpenSession)
	})
}

func TestPresensiRepositoryUpdateTimes(t *testing.T) {
	checkIn := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	now := checkIn.Add(24 * time.Hour)

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectQuery(`UPDATE presensi SET check_in = \$2, check_out = \$3`).
			WithArgs("p-404", checkIn, nil, now).
			WillReturnRows(sqlmock.NewRows(presensiCols))

		_, err := repo.UpdateTimes(context.Background(), "p-404", checkIn, nil, now)
		require.ErrorIs(t, err, model.ErrPresensiNotFound)
	})

	t.Run("reopening a second record trips the index", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectQuery(`UPDATE presensi SET check_in`).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: constraintOneOpenPresensi})

		_, err := repo.UpdateTimes(context.Background(), "p-1", checkIn, nil, now)
		require.ErrorIs(t, err, model.ErrAlreadyCheckedIn)
	})
}

func TestPresensiRepositoryDelete(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectExec(`DELETE FROM presensi WHERE id = \$1`).
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "p-1"))
	})

	t.Run("nothing deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPresensiRepository(db)

		mock.ExpectExec(`DELETE FROM presensi`).
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.Delete(context.Background(), "p-1"), model.ErrPresensiNotFound)
	})
}

func TestPresensiRepositoryListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPresensiRepository(db)
	checkIn := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM presensi\s+WHERE user_id = \$1\s+ORDER BY check_in DESC\s+LIMIT \$2`).
		WithArgs("u-1", 100).
		WillReturnRows(sqlmock.NewRows(presensiCols).
			AddRow("p-2", "u-1", checkIn.Add(24*time.Hour), nil, nil, nil, nil, checkIn, checkIn).
			AddRow("p-1", "u-1", checkIn, checkIn.Add(time.Hour), 1.5, 2.5, nil, checkIn, checkIn))

	records, err := repo.ListByUser(context.Background(), "u-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].IsOpen())
	require.Equal(t, 2.5, *records[1].Longitude)
}
