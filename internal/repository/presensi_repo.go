package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-presensi/internal/model"
)

type PresensiRepository struct {
	db *sql.DB
}

func NewPresensiRepository(db *sql.DB) *PresensiRepository {
	return &PresensiRepository{db: db}
}

const presensiColumns = `id, user_id, check_in, check_out, latitude, longitude, photo, created_at, updated_at`

// CreateOpen inserts an open record. The partial unique index
// presensi_one_open_per_user makes this the only check needed: a second
// open record for the same user fails with model.ErrAlreadyCheckedIn no
// matter how the requests interleave.
func (r *PresensiRepository) CreateOpen(ctx context.Context, p model.Presensi) (model.Presensi, error) {
	if p.CheckOut != nil {
		return model.Presensi{}, fmt.Errorf("create open presensi: check_out must be empty")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO presensi (id, user_id, check_in, check_out, latitude, longitude, photo, created_at, updated_at)
		 VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.CheckIn, nullFloat(p.Latitude), nullFloat(p.Longitude), nullString(p.Photo), p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err, constraintOneOpenPresensi) {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	if err != nil {
		return model.Presensi{}, fmt.Errorf("create presensi: %w", err)
	}
	return p, nil
}

// CloseOpen sets check_out on the user's open record in one statement.
func (r *PresensiRepository) CloseOpen(ctx context.Context, userID string, at time.Time) (model.Presensi, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE presensi SET check_out = $2, updated_at = $2
		 WHERE user_id = $1 AND check_out IS NULL
		 RETURNING `+presensiColumns, userID, at)

	p, err := scanPresensi(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Presensi{}, model.ErrNoOpenSession
	}
	if err != nil {
		return model.Presensi{}, fmt.Errorf("close presensi: %w", err)
	}
	return p, nil
}

func (r *PresensiRepository) FindByID(ctx context.Context, id string) (model.Presensi, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+presensiColumns+` FROM presensi WHERE id = $1`, id)

	p, err := scanPresensi(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	if err != nil {
		return model.Presensi{}, fmt.Errorf("find presensi: %w", err)
	}
	return p, nil
}

func (r *PresensiRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Presensi, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+presensiColumns+` FROM presensi
		 WHERE user_id = $1
		 ORDER BY check_in DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list presensi: %w", err)
	}
	defer rows.Close()

	records := make([]model.Presensi, 0)
	for rows.Next() {
		p, err := scanPresensi(rows)
		if err != nil {
			return nil, fmt.Errorf("scan presensi: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// UpdateTimes overwrites both timestamps of a record. Reopening a record
// while another one is open still trips the open-session index.
func (r *PresensiRepository) UpdateTimes(ctx context.Context, id string, checkIn time.Time, checkOut *time.Time, updatedAt time.Time) (model.Presensi, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE presensi SET check_in = $2, check_out = $3, updated_at = $4
		 WHERE id = $1
		 RETURNING `+presensiColumns, id, checkIn, nullTime(checkOut), updatedAt)

	p, err := scanPresensi(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Presensi{}, model.ErrPresensiNotFound
	}
	if isUniqueViolation(err, constraintOneOpenPresensi) {
		return model.Presensi{}, model.ErrAlreadyCheckedIn
	}
	if err != nil {
		return model.Presensi{}, fmt.Errorf("update presensi: %w", err)
	}
	return p, nil
}

func (r *PresensiRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presensi WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete presensi: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete presensi: %w", err)
	}
	if affected == 0 {
		return model.ErrPresensiNotFound
	}
	return nil
}

func scanPresensi(row rowScanner, extra ...any) (model.Presensi, error) {
	var (
		p         model.Presensi
		checkOut  sql.NullTime
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
		photo     sql.NullString
	)

	dest := []any{&p.ID, &p.UserID, &p.CheckIn, &checkOut, &latitude, &longitude, &photo, &p.CreatedAt, &p.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Presensi{}, err
	}

	if checkOut.Valid {
		t := checkOut.Time
		p.CheckOut = &t
	}
	if latitude.Valid {
		v := latitude.Float64
		p.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		p.Longitude = &v
	}
	if photo.Valid {
		v := photo.String
		p.Photo = &v
	}
	return p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
