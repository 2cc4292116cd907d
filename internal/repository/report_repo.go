package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go-presensi/internal/model"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Daily returns presensi rows joined with their user, newest check-in
// first. Text filters are case-insensitive substring matches.
func (r *ReportRepository) Daily(ctx context.Context, filter model.ReportFilter) ([]model.ReportRow, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	argIdx := 1

	if email := strings.TrimSpace(filter.Email); email != "" {
		where = append(where, fmt.Sprintf(`u.email ILIKE $%d ESCAPE '\'`, argIdx))
		args = append(args, "%"+likeEscaper.Replace(email)+"%")
		argIdx++
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		where = append(where, fmt.Sprintf(`u.name ILIKE $%d ESCAPE '\'`, argIdx))
		args = append(args, "%"+likeEscaper.Replace(name)+"%")
		argIdx++
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("p.check_in >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("p.check_in < $%d", argIdx))
		args = append(args, *filter.To)
	}

	query := `SELECT p.id, p.user_id, p.check_in, p.check_out, p.latitude, p.longitude, p.photo,
		        p.created_at, p.updated_at, u.email, u.name
		 FROM presensi p
		 JOIN users u ON u.id = p.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.check_in DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily report: %w", err)
	}
	defer rows.Close()

	result := make([]model.ReportRow, 0)
	for rows.Next() {
		var row model.ReportRow
		p, err := scanPresensi(rows, &row.Email, &row.Name)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		row.Presensi = p
		result = append(result, row)
	}
	return result, rows.Err()
}
